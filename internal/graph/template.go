package graph

import "fmt"

const defaultSalutation = "הלקוח"

func approvalSubject(orderID string) string {
	return fmt.Sprintf("הגרפיקה שלך להזמנה %s מבן ליין מוכנה לאישור", orderID)
}

// approvalBody renders the RTL HTML approval message. Layout is inlined so
// it survives the mail clients that strip <style> blocks partially.
func approvalBody(orderID, reviewLink, customerName string) string {
	if customerName == "" {
		customerName = defaultSalutation
	}
	return fmt.Sprintf(approvalHTML, customerName, orderID, reviewLink)
}

// Placeholders, in order: customer name, order id, review link.
const approvalHTML = `<!DOCTYPE html>
<html lang="he" dir="rtl">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <style>
        body {
            font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif;
            margin: 0;
            padding: 0;
            background-color: #f6f9fc;
            direction: rtl;
        }
        .email-wrapper {
            width: 100%%;
            background-color: #f6f9fc;
            padding: 20px 0;
        }
        .container {
            max-width: 600px;
            margin: 0 auto;
            background-color: #ffffff;
            border-radius: 8px;
            overflow: hidden;
            border: 1px solid #e0e0e0;
        }
        .header {
            background-color: #0d6efd;
            color: #ffffff;
            padding: 25px;
            text-align: center;
        }
        .header h1 {
            margin: 0;
            font-size: 28px;
            font-weight: 600;
        }
        .content {
            padding: 40px;
            color: #000000;
            line-height: 1.7;
            text-align: right;
        }
        .content p {
            margin: 0 0 15px 0;
            font-size: 16px;
        }
        .button-container {
            text-align: center;
            margin-top: 30px;
        }
        .button {
            display: inline-block;
            padding: 14px 28px;
            border-radius: 6px;
            text-decoration: none;
            font-weight: bold;
            font-size: 18px;
            background-color: #0d6efd;
            color: #ffffff !important;
            border: none;
            white-space: nowrap;
        }
        .footer {
            padding: 20px 40px;
            font-size: 14px;
            color: #555555;
            background-color: #f8f9fa;
            text-align: right;
        }
    </style>
</head>
<body>
    <div class="email-wrapper">
        <div class="container">
            <div class="header">
                <h1>!הגרפיקה מוכנה ומחכה לאישור שלך</h1>
            </div>
            <div class="content">
                <p>,שלום %s</p>
                <p>.מבן ליין מוכנה לבדיקה <strong>%s</strong> הגרפיקה עבור הזמנתך מספר</p>
                <p>על מנת שנוכל להתקדם לשלב ההדפסה, אנא לחצ/י על הכפתור מטה כדי לצפות בגרפיקה, ולאחר מכן לאשר אותה או לבקש שינויים בעמוד שיפתח</p>
                <div class="button-container">
                    <a href="%s" class="button">לצפייה ואישור הגרפיקה</a>
                </div>
            </div>
            <div class="footer">
                <p>,תודה רבה<br>צוות בן ליין</p>
            </div>
        </div>
    </div>
</body>
</html>`
