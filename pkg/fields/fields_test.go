package fields

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestProfile(t *testing.T) {
	columns := []string{"Age", "Gender", "ScheduledDay", "AppointmentDay", "Flag", "Notes", "Mixed"}
	rows := [][]string{
		{"62", "F", "2016-04-29T18:38:08Z", "2016-04-29", "true", "", "1"},
		{"-1", "M", "2016-04-27T08:36:51Z", "2016-05-02", "false", "", "x"},
		{"8", "F", "2016-01-01T17:29:31Z", "2016-01-10", "true", "", "2"},
	}

	profile, err := Profile(columns, rows)
	if err != nil {
		t.Fatal(err)
	}

	got := make([]string, len(profile))
	for i, f := range profile {
		got[i] = f.String()
	}
	want := []string{
		"int8;-1;62;nulls:0;-1:1;8:1;62:1;",
		"enum;2;nulls:0;F:2;M:1;",
		"timestamp;2016-01-01T17:29:31Z;2016-04-29T18:38:08Z;nulls:0",
		"date;2016-01-10T00:00:00Z;2016-05-02T00:00:00Z;nulls:0",
		"bool;true:2;false:1;nulls:0",
		"empty;nulls:3",
		"enum;3;nulls:0;1:1;2:1;x:1;",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("profile mismatch (-want +got):\n%s", diff)
	}
}

func TestNumberField_Types(t *testing.T) {
	tcs := []struct {
		values []float64
		want   string
	}{
		{values: []float64{0, 1}, want: "uint8;0;1;nulls:0;0:1;1:1;"},
		{values: []float64{0, 300}, want: "uint16;0;300;nulls:0;0:1;300:1;"},
		{values: []float64{-200, 5}, want: "int16;-200;5;nulls:0;-200:1;5:1;"},
		{values: []float64{0.5, 2}, want: "float64;0.5;2;nulls:0;0.5:1;2:1;"},
	}

	for _, tc := range tcs {
		t.Run(fmt.Sprint(tc.values), func(t *testing.T) {
			var f Field = &EmptyField{}
			for _, v := range tc.values {
				var err error
				f, err = f.Add(v)
				if err != nil {
					t.Fatal(err)
				}
			}
			if got := f.String(); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestStringField_TooManyValues(t *testing.T) {
	var f Field = &EmptyField{}
	for i := 0; i <= MaxEnum; i++ {
		var err error
		f, err = f.Add(fmt.Sprintf("neighbourhood %d", i))
		if err != nil {
			t.Fatal(err)
		}
	}
	if got, want := f.String(), "string;nulls:0;"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestValue(t *testing.T) {
	if got := Value(" "); got != nil {
		t.Errorf("got %v for blank cell, want nil", got)
	}
	if got, ok := Value("1.5").(float64); !ok || got != 1.5 {
		t.Errorf("got %v, want 1.5", got)
	}
	if got, ok := Value("TRUE").(bool); !ok || !got {
		t.Errorf("got %v, want true", got)
	}
	if got, ok := Value("JARDIM DA PENHA").(string); !ok || got != "JARDIM DA PENHA" {
		t.Errorf("got %v, want string", got)
	}
}
