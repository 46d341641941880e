package email

import (
	"fmt"
	"html"
)

// NewInquirySubject is the subject line of a new-inquiry email
func NewInquirySubject(n InquiryNotification) string {
	if n.LeadCreated {
		return fmt.Sprintf("New lead: %s", n.ListingTitle)
	}
	return fmt.Sprintf("New inquiry: %s", n.ListingTitle)
}

// NewInquiryEmailTemplate generates HTML for a new-inquiry email. All
// prospect-supplied text is escaped.
func NewInquiryEmailTemplate(brokerName, dashboardURL string, n InquiryNotification) string {
	leadNote := `<p style="margin: 0 0 20px; font-size: 14px; color: #B45309;">
                                Your customer limit is full, so this prospect was not added to your leads.
                                Free a slot or upgrade your plan to keep capturing leads automatically.
                            </p>`
	if n.LeadCreated {
		leadNote = `<p style="margin: 0 0 20px; font-size: 14px; color: #047857;">
                                The prospect has been added to your leads.
                            </p>`
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>New Inquiry</title>
</head>
<body style="margin: 0; padding: 0; font-family: Arial, sans-serif; background-color: #f4f4f4;">
    <table role="presentation" style="width: 100%%; border-collapse: collapse;">
        <tr>
            <td align="center" style="padding: 40px 0;">
                <table role="presentation" style="width: 600px; border-collapse: collapse; background-color: #ffffff; border-radius: 8px;">
                    <tr>
                        <td style="padding: 30px; text-align: center; background-color: #0F766E; border-radius: 8px 8px 0 0;">
                            <h1 style="margin: 0; color: #ffffff; font-size: 24px;">%s</h1>
                        </td>
                    </tr>
                    <tr>
                        <td style="padding: 30px;">
                            <p style="margin: 0 0 20px; font-size: 16px; color: #333333;">Hi %s,</p>
                            <p style="margin: 0 0 20px; font-size: 16px; color: #333333;">
                                <strong>%s</strong> asked about your listing.
                            </p>
                            <p style="margin: 0 0 8px; font-size: 14px; color: #555555;">Email: %s</p>
                            <p style="margin: 0 0 20px; font-size: 14px; color: #555555;">Phone: %s</p>
                            <blockquote style="margin: 0 0 20px; padding: 12px 16px; background-color: #F3F4F6; color: #333333;">%s</blockquote>
                            %s
                            <a href="%s" style="display: inline-block; padding: 12px 32px; background-color: #0F766E; color: #ffffff; text-decoration: none; border-radius: 6px;">Open dashboard</a>
                        </td>
                    </tr>
                </table>
            </td>
        </tr>
    </table>
</body>
</html>
`,
		html.EscapeString(n.ListingTitle),
		html.EscapeString(brokerName),
		html.EscapeString(n.ProspectName),
		html.EscapeString(n.ProspectEmail),
		html.EscapeString(n.ProspectPhone),
		html.EscapeString(n.Message),
		leadNote,
		html.EscapeString(dashboardURL),
	)
}
