package domain

import (
	"strings"
	"testing"
)

func TestParseEffect(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		wantErr string
		want    Effect
	}{
		{
			name: "sell",
			raw:  `{"action":"sell","product":"apples","storage":"storage_1","count":5}`,
			want: Effect{Action: EffectSell, Product: "apples", Storage: "storage_1", Count: 5},
		},
		{
			name: "add",
			raw:  `{"action":"add","product":"nails","storage":"storage_2","count":40}`,
			want: Effect{Action: EffectAdd, Product: "nails", Storage: "storage_2", Count: 40},
		},
		{
			name: "move",
			raw:  `{"action":"move","product":"apples","storage":"storage_2","count":3,"from":"storage_1"}`,
			want: Effect{Action: EffectMove, Product: "apples", Storage: "storage_2", Count: 3, From: "storage_1"},
		},
		{
			name:    "unknown action",
			raw:     `{"action":"discard","product":"apples","storage":"storage_1","count":5}`,
			wantErr: "unknown effect action",
		},
		{
			name:    "move without source",
			raw:     `{"action":"move","product":"apples","storage":"storage_2","count":3}`,
			wantErr: "source storage",
		},
		{
			name:    "missing product",
			raw:     `{"action":"sell","storage":"storage_1","count":5}`,
			wantErr: "product",
		},
		{
			name:    "missing storage",
			raw:     `{"action":"sell","product":"apples","count":5}`,
			wantErr: "storage",
		},
		{
			name:    "non-positive count",
			raw:     `{"action":"sell","product":"apples","storage":"storage_1","count":0}`,
			wantErr: "positive",
		},
		{
			name:    "empty payload",
			raw:     "",
			wantErr: "empty",
		},
		{
			name:    "malformed json",
			raw:     `{"action":`,
			wantErr: "decode",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseEffect([]byte(tc.raw))
			if tc.wantErr != "" {
				if err == nil {
					t.Fatalf("expected error containing %q, got effect %+v", tc.wantErr, got)
				}
				if !strings.Contains(err.Error(), tc.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if got != tc.want {
				t.Fatalf("parsed %+v, want %+v", got, tc.want)
			}
		})
	}
}
