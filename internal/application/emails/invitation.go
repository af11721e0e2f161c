package emails

import (
	"fmt"
	"strings"
	"time"
)

// InvitationSubject is the fixed subject line of invitation emails.
const InvitationSubject = "You're invited to the Concierge Service"

// InvitationMessage builds the email carrying an invitation link.
func InvitationMessage(to string, name *string, link string, ttl time.Duration) Message {
	greeting := "Hello,"
	toName := ""
	if name != nil && strings.TrimSpace(*name) != "" {
		toName = strings.TrimSpace(*name)
		greeting = fmt.Sprintf("Hello %s,", EscapeHTML(toName))
	}
	safeLink := EscapeHTML(link)
	content := fmt.Sprintf(`
<h1>You're invited</h1>
<p>%s</p>
<p>You have been invited to join the %s. Click the button below to set your password and activate your account.</p>
<p style="text-align: center;"><a href="%s" class="cta-button">Accept invitation</a></p>
<p>If the button does not work, copy this link into your browser:<br><a href="%s">%s</a></p>
<p>This invitation expires in %s. If you were not expecting it, you can ignore this email.</p>
`, greeting, senderName, safeLink, safeLink, safeLink, FormatLifetime(ttl))
	return Message{
		To:      to,
		ToName:  toName,
		Subject: InvitationSubject,
		HTML:    EmailLayout(content),
	}
}

// FormatLifetime renders a duration as "6 hours 30 minutes".
func FormatLifetime(d time.Duration) string {
	if d < time.Minute {
		return "less than a minute"
	}
	d = d.Truncate(time.Minute)
	days := int(d / (24 * time.Hour))
	d -= time.Duration(days) * 24 * time.Hour
	hours := int(d / time.Hour)
	minutes := int((d - time.Duration(hours)*time.Hour) / time.Minute)

	var parts []string
	for _, p := range []struct {
		n    int
		unit string
	}{{days, "day"}, {hours, "hour"}, {minutes, "minute"}} {
		if p.n == 0 {
			continue
		}
		if p.n == 1 {
			parts = append(parts, "1 "+p.unit)
		} else {
			parts = append(parts, fmt.Sprintf("%d %ss", p.n, p.unit))
		}
	}
	return strings.Join(parts, " ")
}
