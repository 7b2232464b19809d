package search

import (
	"reflect"
	"testing"
)

func TestTokenizeDropsStopwordsAndDupes(t *testing.T) {
	got := Tokenize("The Tent and the tent for camping")
	want := []string{"tent", "camping"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize = %v, want %v", got, want)
	}
}

func TestTokenizeEmpty(t *testing.T) {
	if got := Tokenize("   "); got != nil {
		t.Errorf("Tokenize(blank) = %v, want nil", got)
	}
}

func TestTokenizeLowercases(t *testing.T) {
	got := Tokenize("DeWalt Drill_20V")
	want := []string{"dewalt", "drill_20v"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize = %v, want %v", got, want)
	}
}
