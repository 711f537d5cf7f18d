// internal/engine/operators_test.go
package engine

import "testing"

func TestCompare_Numeric(t *testing.T) {
	tests := []struct {
		name    string
		op      string
		value   any
		target  any
		want    bool
		wantErr bool
	}{
		{name: "int eq int", op: "eq", value: 3, target: 3, want: true},
		{name: "int eq float64", op: "eq", value: 3, target: float64(3), want: true},
		{name: "int64 gt int", op: "gt", value: int64(10), target: 5, want: true},
		{name: "lt false on equal", op: "lt", value: 5, target: 5, want: false},
		{name: "lte true on equal", op: "lte", value: 5, target: 5, want: true},
		{name: "gte mixed float32", op: "gte", value: float32(2.5), target: 2, want: true},
		{name: "ordered on strings errors", op: "gt", value: "b", target: "a", wantErr: true},
		{name: "unknown operator", op: "approximately", value: 1, target: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := compare(tt.op, tt.value, tt.target)
			if (err != nil) != tt.wantErr {
				t.Fatalf("compare() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("compare() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompare_StringsAndLists(t *testing.T) {
	tests := []struct {
		name    string
		op      string
		value   any
		target  any
		want    bool
		wantErr bool
	}{
		{name: "string eq", op: "eq", value: "main", target: "main", want: true},
		{name: "string neq", op: "neq", value: "main", target: "develop", want: true},
		{name: "matches anchored", op: "matches", value: "release-2.1", target: `^release-\d`, want: true},
		{name: "matches invalid pattern errors", op: "matches", value: "x", target: `[unclosed`, wantErr: true},
		{name: "matches non-string value errors", op: "matches", value: 42, target: `\d+`, wantErr: true},
		{name: "in string set", op: "in", value: "main", target: []any{"main", "master"}, want: true},
		{name: "in miss", op: "in", value: "dev", target: []any{"main", "master"}, want: false},
		{name: "in non-list target errors", op: "in", value: "x", target: "not-a-list", wantErr: true},
		{name: "contains substring", op: "contains", value: "hotfix: rollback", target: "rollback", want: true},
		{name: "contains list element", op: "contains", value: []string{"a", "b"}, target: "b", want: true},
		{name: "contains list miss", op: "contains", value: []string{"a", "b"}, target: "z", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := compare(tt.op, tt.value, tt.target)
			if (err != nil) != tt.wantErr {
				t.Fatalf("compare() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("compare() = %v, want %v", got, tt.want)
			}
		})
	}
}
