package routinepdf

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestExportText_Workout(t *testing.T) {
	t.Parallel()

	meta := Meta{RenewalDate: "۲۶ مهر ۱۴۰۵", Contact: Contact{Phone: "0912 000 0000"}}
	got, err := ExportText(sampleWorkout(), meta)
	if err != nil {
		t.Fatalf("ExportText() error = %v", err)
	}

	want := "🌟 برنامه تمرینی اختصاصی 🌟\n" +
		"👤 نام شاگرد: علی رضایی\n" +
		"⚖️ وزن: 82\n" +
		"📅 تاریخ تمدید: ۲۶ مهر ۱۴۰۵\n\n" +
		"--------------------------------\n\n" +
		"🔷 [ روز اول ]\n" +
		"1. اسکوات | 4 ست | 10 تکرار | استراحت: 90s\n" +
		"2. پرس سینه | 3 ست | 12 تکرار | استراحت: 60s\n" +
		"\n" +
		"🔷 [ روز دوم ]\n" +
		"1. ددلیفت | 5 ست | 5 تکرار | استراحت: 120s\n" +
		"\n" +
		"--------------------------------\n" +
		"💡 نکات طلایی:\nآب کافی بنوشید\n\n" +
		"--------------------------------\n" +
		"📲 جهت تمدید و دریافت برنامه جدید پیام بدهید:\n" +
		"📞 0912 000 0000\n"

	if string(got) != want {
		t.Errorf("ExportText() mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestExportText_Meal(t *testing.T) {
	t.Parallel()

	got, err := ExportText(sampleMeal(), Meta{RenewalDate: "2026-10-18"})
	if err != nil {
		t.Fatalf("ExportText() error = %v", err)
	}
	s := string(got)

	for _, want := range []string{
		"🌟 برنامه غذایی اختصاصی 🌟\n",
		"👤 نام شاگرد: ---\n",
		"⚖️ وزن: ---\n",
		"1. نان و پنیر: دو کف دست نان سنگک با ۳۰ گرم پنیر\n",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("ExportText() missing %q", want)
		}
	}
	if strings.Contains(s, "نکات طلایی") {
		t.Error("tips block should be omitted when tips are empty")
	}
	if strings.Contains(s, "📞") {
		t.Error("phone line should be omitted when no phone is configured")
	}
	if strings.Contains(s, "ست |") {
		t.Error("meal lines must not use the workout layout")
	}
}

func TestExportText_CustomContactLabel(t *testing.T) {
	t.Parallel()

	got, err := ExportText(sampleMeal(), Meta{Contact: Contact{Label: "Call us", Phone: "1"}})
	if err != nil {
		t.Fatalf("ExportText() error = %v", err)
	}
	if !strings.HasSuffix(string(got), "📲 Call us:\n📞 1\n") {
		t.Errorf("footer = %q", got)
	}
}

func TestExportText_EmptyDay(t *testing.T) {
	t.Parallel()

	r := &Routine{Kind: KindWorkout, Days: []Day{{Name: "استراحت"}}}
	got, err := ExportText(r, Meta{})
	if err != nil {
		t.Fatalf("ExportText() error = %v", err)
	}
	if !strings.Contains(string(got), "🔷 [ استراحت ]\n\n") {
		t.Errorf("empty day should print its name and a blank line, got %q", got)
	}
}

func TestExportText_Deterministic(t *testing.T) {
	t.Parallel()

	meta := Meta{RenewalDate: "x", Contact: Contact{Phone: "1"}}
	a, err := ExportText(sampleWorkout(), meta)
	if err != nil {
		t.Fatal(err)
	}
	b, err := ExportText(sampleWorkout(), meta)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("ExportText() output differs between identical calls")
	}
}

func TestExportText_Validation(t *testing.T) {
	t.Parallel()

	if _, err := ExportText(&Routine{Kind: KindMeal}, Meta{}); !errors.Is(err, ErrNoDays) {
		t.Errorf("ExportText(no days) error = %v, want ErrNoDays", err)
	}
	if _, err := ExportText(nil, Meta{}); !errors.Is(err, ErrNilRoutine) {
		t.Errorf("ExportText(nil) error = %v, want ErrNilRoutine", err)
	}
}
