package contacts

import (
	"reflect"
	"testing"
)

func TestExtractFromCSV(t *testing.T) {
	input := "name,email\nAlice,alice@example.com\nBob,bob@corp.io\n"
	got := Extract(input)
	want := []string{"alice@example.com", "bob@corp.io"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestExtractFromFreeText(t *testing.T) {
	input := "Ping carol.smith+team@sub.example.co.uk and dave_99@corp.io tomorrow; dave_99@corp.io again."
	got := Extract(input)
	want := []string{"carol.smith+team@sub.example.co.uk", "dave_99@corp.io"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestExtractLowercasesAndDedupes(t *testing.T) {
	got := Extract("Alice@Example.COM, alice@example.com")
	want := []string{"alice@example.com"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestExtractNoAddresses(t *testing.T) {
	if got := Extract("no addresses in here, not even at signs near dots"); got != nil {
		t.Fatalf("got %v, want nil", got)
	}
}
