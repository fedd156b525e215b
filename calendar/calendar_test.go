package calendar

import (
	"errors"
	"testing"

	"github.com/nstehr/trackside/trackside-core/model"
)

// dateOf builds a regular (non pre-debut) date for tests.
func dateOf(y model.Year, month int, p model.Period) model.CareerDate {
	d, err := FromReading(RawDate{Year: y, Month: month, Period: p})
	if err != nil {
		panic(err)
	}
	return d
}

func TestAbsoluteDay(t *testing.T) {
	tests := []struct {
		y     model.Year
		month int
		p     model.Period
		want  int
	}{
		{model.Junior, 1, model.Early, 1},
		{model.Junior, 1, model.Late, 2},
		{model.Junior, 12, model.Late, 24},
		{model.Classic, 1, model.Early, 25},
		{model.Classic, 1, model.Late, 26},
		{model.Senior, 6, model.Early, 59},
		{model.Senior, 12, model.Late, 72},
	}
	for _, tc := range tests {
		got := AbsoluteDay(tc.y, tc.month, tc.p)
		if got != tc.want {
			t.Errorf("AbsoluteDay(%s, %d, %s) = %d, want %d", tc.y, tc.month, tc.p, got, tc.want)
		}
	}
}

func TestFromReadingPreDebut(t *testing.T) {
	for _, y := range []model.Year{model.Junior, model.Classic, model.Senior} {
		d, err := FromReading(RawDate{Year: y, PreDebut: true})
		if err != nil {
			t.Fatalf("FromReading pre-debut %s: %v", y, err)
		}
		if d.AbsoluteDay != int(y)*24+1 {
			t.Errorf("pre-debut %s day = %d, want %d", y, d.AbsoluteDay, int(y)*24+1)
		}
		if !d.PreDebut {
			t.Errorf("pre-debut flag not set")
		}
	}
}

func TestFromReadingInvalid(t *testing.T) {
	bad := []RawDate{
		{Year: model.Junior, Month: 0},
		{Year: model.Junior, Month: 13},
		{Year: 7, Month: 3},
		{Year: model.Classic, Month: 4, Period: 9},
	}
	for _, r := range bad {
		if _, err := FromReading(r); !errors.Is(err, model.ErrDateParse) {
			t.Errorf("FromReading(%+v) error = %v, want ErrDateParse", r, err)
		}
	}
}

func TestFallback(t *testing.T) {
	d := Fallback()
	if d.Year != model.Classic || d.AbsoluteDay != 50 || d.Month != 0 {
		t.Errorf("Fallback() = %+v", d)
	}
}

func TestStageOf(t *testing.T) {
	th := DefaultThresholds()
	tests := []struct {
		day  int
		want Stage
	}{
		{1, PreDebut},
		{16, PreDebut},
		{17, Early},
		{24, Early},
		{25, Mid},
		{48, Mid},
		{49, Late},
		{72, Late},
	}
	for _, tc := range tests {
		if got := StageOf(tc.day, th); got != tc.want {
			t.Errorf("StageOf(%d) = %s, want %s", tc.day, got, tc.want)
		}
	}
}

func TestDateStageFinaleAndPreDebut(t *testing.T) {
	th := DefaultThresholds()
	if got := DateStage(Finale(), th); got != Late {
		t.Errorf("finale stage = %s, want late", got)
	}
	pd, _ := FromReading(RawDate{Year: model.Classic, PreDebut: true})
	if got := DateStage(pd, th); got != PreDebut {
		t.Errorf("pre-debut flag should win, got %s", got)
	}
}

func TestIsRestrictedAllDays(t *testing.T) {
	for _, y := range []model.Year{model.Junior, model.Classic, model.Senior} {
		for month := 1; month <= 12; month++ {
			for _, p := range []model.Period{model.Early, model.Late} {
				d := dateOf(y, month, p)
				inFirst16 := d.AbsoluteDay >= d.YearStart() && d.AbsoluteDay <= d.YearStart()+15
				inSummer := month == 7 || month == 8
				want := inFirst16 || inSummer
				if got := IsRestricted(d); got != want {
					t.Errorf("IsRestricted(%s) = %v, want %v", Format(d), got, want)
				}
			}
		}
	}
}

func TestIsRestrictedSpecialDates(t *testing.T) {
	if !IsRestricted(Finale()) {
		t.Error("finale should be restricted")
	}
	pd, _ := FromReading(RawDate{Year: model.Senior, PreDebut: true})
	if !IsRestricted(pd) {
		t.Error("pre-debut should be restricted")
	}
	if IsRestricted(dateOf(model.Classic, 10, model.Late)) {
		t.Error("Classic Late Oct should be open for racing")
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		text     string
		wantDay  int
		preDebut bool
		finale   bool
	}{
		{"Classic Year Early Jun", AbsoluteDay(model.Classic, 6, model.Early), false, false},
		{"Senior Year Late Dec", 72, false, false},
		{"Junior Year Pre-Debut", 1, true, false},
		{"Clasic Year Earlv Apr", AbsoluteDay(model.Classic, 4, model.Early), false, false},
		{"Senlor Yean Lale Oct", AbsoluteDay(model.Senior, 10, model.Late), false, false},
		{"Finale Season", model.FinaleDay, false, true},
		{"junior stuff nov late", AbsoluteDay(model.Junior, 11, model.Late), false, false},
	}
	for _, tc := range tests {
		d, err := Parse(tc.text)
		if err != nil {
			t.Errorf("Parse(%q) error: %v", tc.text, err)
			continue
		}
		if d.AbsoluteDay != tc.wantDay || d.PreDebut != tc.preDebut || d.Finale != tc.finale {
			t.Errorf("Parse(%q) = %+v, want day %d preDebut %v finale %v",
				tc.text, d, tc.wantDay, tc.preDebut, tc.finale)
		}
	}
}

func TestParseFailure(t *testing.T) {
	for _, text := range []string{"", "hello world", "Year Early"} {
		if _, err := Parse(text); !errors.Is(err, model.ErrDateParse) {
			t.Errorf("Parse(%q) error = %v, want ErrDateParse", text, err)
		}
	}
}

func TestFormatRoundTrip(t *testing.T) {
	d := dateOf(model.Classic, 9, model.Late)
	got, err := Parse(Format(d))
	if err != nil {
		t.Fatalf("Parse(Format): %v", err)
	}
	if got != d {
		t.Errorf("round trip = %+v, want %+v", got, d)
	}
}
