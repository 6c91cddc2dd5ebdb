package domain

// Order is a single ORDERS record as returned by the Priority OData API.
// The gateway never interprets the payload beyond the fields below; sub-forms
// (items, texts, documents, contacts) ride along untouched.
type Order map[string]any

// Name returns the order's primary key (ORDNAME), or "" if absent.
func (o Order) Name() string {
	if v, ok := o["ORDNAME"].(string); ok {
		return v
	}
	return ""
}

// Status returns the order's status description (ORDSTATUSDES), or "".
func (o Order) Status() string {
	if v, ok := o["ORDSTATUSDES"].(string); ok {
		return v
	}
	return ""
}

// OrderList is the OData collection envelope.
type OrderList struct {
	Context string  `json:"@odata.context,omitempty"`
	Value   []Order `json:"value"`
}

// StatusUpdateRequest is the body of POST /update-status and
// /update-status-and-attach. SendEmail defaults to true when omitted.
type StatusUpdateRequest struct {
	OrderName    string `json:"orderName"`
	Status       string `json:"status"`
	Email        string `json:"email,omitempty"`
	CustomerName string `json:"name,omitempty"`
	ReviewLink   string `json:"reviewLink,omitempty"`
	PhoneNumber  string `json:"phoneNumber,omitempty"`
	SendEmail    *bool  `json:"sendEmail,omitempty"`
	FileBase64   string `json:"fileBase64,omitempty"`
}

// WantsEmail reports whether the request asks for the approval email.
func (r StatusUpdateRequest) WantsEmail() bool {
	return r.SendEmail == nil || *r.SendEmail
}

// UpdateResult is the orchestrator outcome once the status change itself
// succeeded. Notified reports whether the approval email was delivered to
// the provider; Message is the human-readable summary returned to clients.
type UpdateResult struct {
	Notified bool
	Message  string
}
