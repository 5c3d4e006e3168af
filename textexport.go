package routinepdf

import (
	"strconv"
	"strings"
)

const textRule = "--------------------------------\n"

// ExportText writes r as plain UTF-8 text for messaging apps. The output
// depends only on r and meta.
func ExportText(r *Routine, meta Meta) ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString("🌟 " + r.Kind.Heading() + " 🌟\n")
	b.WriteString("👤 نام شاگرد: " + orPlaceholder(r.StudentName) + "\n")
	b.WriteString("⚖️ وزن: " + orPlaceholder(r.StudentWeight) + "\n")
	b.WriteString("📅 تاریخ تمدید: " + meta.RenewalDate + "\n\n")
	b.WriteString(textRule + "\n")

	for _, day := range r.Days {
		b.WriteString("🔷 [ " + day.Name + " ]\n")
		for i, it := range day.Items {
			b.WriteString(strconv.Itoa(i+1) + ". " + it.Label)
			if r.Kind == KindMeal {
				b.WriteString(": " + it.Primary + "\n")
				continue
			}
			b.WriteString(" | " + it.Primary + " ست | " + it.Secondary + " تکرار | استراحت: " + it.Tertiary + "\n")
		}
		b.WriteString("\n")
	}

	if r.Tips != "" {
		b.WriteString(textRule)
		b.WriteString("💡 نکات طلایی:\n" + r.Tips + "\n\n")
	}

	b.WriteString(textRule)
	b.WriteString("📲 " + meta.Contact.label() + ":\n")
	if meta.Contact.Phone != "" {
		b.WriteString("📞 " + meta.Contact.Phone + "\n")
	}

	return []byte(b.String()), nil
}
