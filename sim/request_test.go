package sim

import "testing"

func TestRequest_Done(t *testing.T) {
	tests := map[RequestState]bool{
		StateInTransit:  false,
		StateQueued:     false,
		StateProcessing: false,
		StateCompleted:  true,
		StateFailed:     true,
		StateBlocked:    true,
	}
	for state, want := range tests {
		if got := (&Request{State: state}).Done(); got != want {
			t.Errorf("Done() in %s = %v, want %v", state, got, want)
		}
	}
}

func TestParseRequestType(t *testing.T) {
	for _, s := range []string{"web", "api", "fraud"} {
		if _, err := ParseRequestType(s); err != nil {
			t.Errorf("ParseRequestType(%q): %v", s, err)
		}
	}
	if _, err := ParseRequestType("grpc"); err == nil {
		t.Error("expected an error for an unknown type")
	}
}
