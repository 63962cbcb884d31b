package admin

import (
	"MTLAJoin/internal/core/domain"
	"MTLAJoin/internal/core/operator"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxMessageLen keeps each report part under the client's message limit.
const MaxMessageLen = 4000

const timeLayout = "2006-01-02 15:04 UTC"

var stateNames = map[domain.ApplicantState]string{
	domain.StateCheckingHandle:  "Checking username",
	domain.StateAgreement:       "Agreement",
	domain.StateEnteringAddress: "Entering address",
	domain.StateCheckingAddress: "Checking address",
	domain.StateCompleted:       "Completed",
}

// StateName is the human-readable name of s.
func StateName(s domain.ApplicantState) string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return string(s)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// FormatStats renders the statistics report.
func FormatStats(stats *domain.ApplicantStats) string {
	var b strings.Builder
	b.WriteString("📊 Applicants\n\n")
	fmt.Fprintf(&b, "👥 Total: %d\n", stats.Total)
	fmt.Fprintf(&b, "✅ Completed: %d\n", stats.Completed)
	fmt.Fprintf(&b, "🔄 Active in the last 24h: %d\n\n", stats.Active)
	b.WriteString("📈 By state:\n")
	for _, s := range domain.States {
		fmt.Fprintf(&b, "  %s: %d\n", StateName(s), stats.ByState[s])
	}
	return b.String()
}

// FormatIncomplete renders the incomplete applicants report.
func FormatIncomplete(l operator.Listing) string {
	if l.Total == 0 {
		return "Every applicant has finished! 🎉"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📋 Incomplete applicants (%d):\n\n", l.Total)
	for _, a := range l.Applicants {
		fmt.Fprintf(&b, "👤 @%s (%d)\n", a.Handle, a.ID)
		fmt.Fprintf(&b, "   📍 State: %s\n", StateName(a.State))
		fmt.Fprintf(&b, "   📅 Created: %s\n\n", formatTime(a.CreatedAt))
	}
	if n := l.Remaining(); n > 0 {
		fmt.Fprintf(&b, "... and %d more", n)
	}
	return b.String()
}

// FormatReminders renders the reminder candidates report.
func FormatReminders(l operator.ReminderListing) string {
	if l.Total == 0 {
		return fmt.Sprintf("No applicants inactive for more than %d days", l.Days)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🔔 Inactive for more than %d days (%d):\n\n", l.Days, l.Total)
	for _, a := range l.Applicants {
		fmt.Fprintf(&b, "👤 @%s (%d)\n", a.Handle, a.ID)
		fmt.Fprintf(&b, "   📍 State: %s\n", StateName(a.State))
		fmt.Fprintf(&b, "   ⏰ Last activity: %s\n\n", formatTime(a.LastActivityAt))
	}
	if n := l.Remaining(); n > 0 {
		fmt.Fprintf(&b, "... and %d more", n)
	}
	return b.String()
}

// FormatDetails renders one applicant.
func FormatDetails(d *operator.Details) string {
	a := d.Applicant
	var b strings.Builder
	fmt.Fprintf(&b, "👤 @%s\n\n", a.Handle)
	fmt.Fprintf(&b, "🆔 ID: %d\n", a.ID)
	fmt.Fprintf(&b, "🌐 Language: %s\n", a.Locale)
	fmt.Fprintf(&b, "📍 State: %s\n", StateName(a.State))
	fmt.Fprintf(&b, "📅 Created: %s\n", formatTime(a.CreatedAt))
	fmt.Fprintf(&b, "⏰ Last activity: %s\n\n", formatTime(a.LastActivityAt))

	b.WriteString("📊 Progress:\n")
	fmt.Fprintf(&b, "  Username: %s\n", yesNo(d.Progress.HandleCheck))
	fmt.Fprintf(&b, "  Agreement: %s\n", yesNo(d.Progress.Agreement))
	fmt.Fprintf(&b, "  Address entered: %s\n", yesNo(d.Progress.AddressEntered))
	fmt.Fprintf(&b, "  Trustline: %s\n", yesNo(d.Progress.TrustlineCheck))
	fmt.Fprintf(&b, "  Recommendation: %s\n", yesNo(d.Progress.Recommendation))

	if a.LedgerAddress != nil {
		fmt.Fprintf(&b, "\n💎 Stellar address: %s", *a.LedgerAddress)
	}
	if a.RecommenderHandle != nil {
		fmt.Fprintf(&b, "\n👥 Recommended by: %s", *a.RecommenderHandle)
	}
	return b.String()
}

// Chunk splits text into parts of at most limit runes, preferring line
// breaks. Multi-part output is numbered.
func Chunk(text string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}
	// Leave room for the "Part i/n" header.
	body := limit - 32

	var parts []string
	var cur strings.Builder
	curLen := 0
	flush := func() {
		if curLen > 0 {
			parts = append(parts, cur.String())
			cur.Reset()
			curLen = 0
		}
	}
	for _, line := range strings.SplitAfter(text, "\n") {
		n := utf8.RuneCountInString(line)
		if curLen+n > body {
			flush()
		}
		for n > body {
			runes := []rune(line)
			parts = append(parts, string(runes[:body]))
			line = string(runes[body:])
			n -= body
		}
		cur.WriteString(line)
		curLen += n
	}
	flush()

	for i := range parts {
		parts[i] = fmt.Sprintf("Part %d/%d:\n\n%s", i+1, len(parts), parts[i])
	}
	return parts
}
