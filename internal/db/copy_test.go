package db

import "testing"

func TestChannelSource(t *testing.T) {
	ch := make(chan string, 3)
	ch <- "a"
	ch <- "b"
	close(ch)

	src := NewChannelSource(ch, func(s string) []any { return []any{s, len(s)} })
	var got []any
	for src.Next() {
		vals, err := src.Values()
		if err != nil {
			t.Fatalf("Values: %v", err)
		}
		got = append(got, vals[0])
	}
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("got %v", got)
	}
	if src.Err() != nil {
		t.Errorf("Err: %v", src.Err())
	}
}
