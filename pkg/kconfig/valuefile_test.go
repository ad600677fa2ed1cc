package kconfig

import (
	"reflect"
	"strings"
	"testing"
)

func TestParseValueFile(t *testing.T) {
	input := `
# Generated by autokernel on 2026-01-01 00:00:00 UTC
CONFIG_NET=y
CONFIG_USB=m
# CONFIG_DEBUG_KERNEL is not set
CONFIG_HOSTNAME="my box"
CONFIG_CMDLINE="quiet \"inner\""
CONFIG_HZ=250
`
	entries, err := ParseValueFile(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseValueFile: %v", err)
	}

	want := []ValueEntry{
		{Symbol: "NET", Value: "y"},
		{Symbol: "USB", Value: "m"},
		{Symbol: "DEBUG_KERNEL", Value: "n"},
		{Symbol: "HOSTNAME", Value: "my box"},
		{Symbol: "CMDLINE", Value: `quiet "inner"`},
		{Symbol: "HZ", Value: "250"},
	}
	if !reflect.DeepEqual(entries, want) {
		t.Errorf("Unexpected entries.\n got: %v\nwant: %v", entries, want)
	}
}

func TestParseValueFile_BadLine(t *testing.T) {
	if _, err := ParseValueFile(strings.NewReader("CONFIG_NET\n")); err == nil {
		t.Error("Expected an error for a line without an assignment")
	}
	if _, err := ParseValueFile(strings.NewReader("CONFIG_S=\"unterminated\n")); err == nil {
		t.Error("Expected an error for an unterminated quote")
	}
}

func TestFormatValueLine(t *testing.T) {
	tests := []struct {
		symbol string
		value  string
		typ    SymbolType
		want   string
	}{
		{"NET", "y", TypeTristate, "CONFIG_NET=y"},
		{"USB", "m", TypeTristate, "CONFIG_USB=m"},
		{"DEBUG", "n", TypeBool, "# CONFIG_DEBUG is not set"},
		{"HOSTNAME", "box", TypeString, `CONFIG_HOSTNAME="box"`},
		{"HZ", "250", TypeInt, "CONFIG_HZ=250"},
	}
	for _, tt := range tests {
		if got := FormatValueLine(tt.symbol, tt.value, tt.typ); got != tt.want {
			t.Errorf("FormatValueLine(%s, %s, %s) = %q, want %q",
				tt.symbol, tt.value, tt.typ, got, tt.want)
		}
	}
}

func TestFormatValue(t *testing.T) {
	if got := FormatValue("y"); got != "[y]" {
		t.Errorf("FormatValue(y) = %q", got)
	}
	if got := FormatValue("box"); got != "'box'" {
		t.Errorf("FormatValue(box) = %q", got)
	}
}

func TestTristate(t *testing.T) {
	for _, tt := range []struct {
		in   string
		tri  Tristate
		ok   bool
		bool bool
	}{
		{"n", No, true, false},
		{"m", Mod, true, true},
		{"y", Yes, true, true},
		{"250", No, false, false},
	} {
		tri, ok := ParseTristate(tt.in)
		if tri != tt.tri || ok != tt.ok {
			t.Errorf("ParseTristate(%q) = %v, %v", tt.in, tri, ok)
		}
		if ok && tri.Bool() != tt.bool {
			t.Errorf("ParseTristate(%q).Bool() = %v", tt.in, tri.Bool())
		}
	}
}
