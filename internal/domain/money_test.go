package domain

import (
	"encoding/json"
	"testing"
)

func TestMoney_StringAndJSON(t *testing.T) {
	t.Parallel()

	cases := []struct {
		m    Money
		want string
	}{
		{2500, "25.00"},
		{5, "0.05"},
		{1167, "11.67"},
		{-250, "-2.50"},
	}
	for _, tc := range cases {
		if tc.m.String() != tc.want {
			t.Fatalf("String(%d)=%s", tc.m, tc.m.String())
		}
		b, err := json.Marshal(struct {
			Fare Money `json:"fare"`
		}{tc.m})
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if string(b) != `{"fare":`+tc.want+`}` {
			t.Fatalf("json=%s", b)
		}
	}
}

func TestMoney_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	var m Money
	if err := json.Unmarshal([]byte(`45.5`), &m); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if m != 4550 {
		t.Fatalf("m=%d", m)
	}
	if err := json.Unmarshal([]byte(`"abc"`), &m); err == nil {
		t.Fatalf("expected error for string")
	}
}
