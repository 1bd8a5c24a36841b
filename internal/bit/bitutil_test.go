package bit

import "testing"

func TestCombine(t *testing.T) {
	tests := []struct {
		high, low uint8
		expected  uint16
	}{
		{0xAB, 0xCD, 0xABCD},
		{0x00, 0x00, 0x0000},
		{0xFF, 0xFF, 0xFFFF},
	}
	for _, tt := range tests {
		if got := Combine(tt.high, tt.low); got != tt.expected {
			t.Errorf("Combine(%X, %X) = %X; want %X", tt.high, tt.low, got, tt.expected)
		}
	}
}

func TestLowHigh(t *testing.T) {
	if Low(0xABCD) != 0xCD {
		t.Errorf("Low(0xABCD) = %X; want 0xCD", Low(0xABCD))
	}
	if High(0xABCD) != 0xAB {
		t.Errorf("High(0xABCD) = %X; want 0xAB", High(0xABCD))
	}
}

func TestIsSet(t *testing.T) {
	tests := []struct {
		value    uint8
		index    uint8
		expected bool
	}{
		{0b10101010, 0, false},
		{0b10101010, 1, true},
		{0b10101010, 7, true},
	}
	for _, tt := range tests {
		if got := IsSet(tt.index, tt.value); got != tt.expected {
			t.Errorf("IsSet(%d, %08b) = %v; want %v", tt.index, tt.value, got, tt.expected)
		}
	}
}

func TestSetResetSetTo(t *testing.T) {
	if got := Set(0, 0b10101010); got != 0b10101011 {
		t.Errorf("Set(0, ...) = %08b", got)
	}
	if got := Reset(7, 0b10101011); got != 0b00101011 {
		t.Errorf("Reset(7, ...) = %08b", got)
	}
	if got := SetTo(0, 0b10101010, true); got != 0b10101011 {
		t.Errorf("SetTo(0, ..., true) = %08b", got)
	}
	if got := SetTo(1, 0b10101010, false); got != 0b10101000 {
		t.Errorf("SetTo(1, ..., false) = %08b", got)
	}
}

func TestExtractBits(t *testing.T) {
	if got := ExtractBits(0b11010110, 6, 4); got != 0b101 {
		t.Errorf("ExtractBits(0b11010110, 6, 4) = %03b; want 101", got)
	}
	if got := ExtractBits(0xFF, 7, 0); got != 0xFF {
		t.Errorf("ExtractBits(0xFF, 7, 0) = %X", got)
	}
}

func TestIsSet16(t *testing.T) {
	if !IsSet16(9, 1<<9) {
		t.Errorf("IsSet16(9, 1<<9) = false; want true")
	}
	if IsSet16(9, 0) {
		t.Errorf("IsSet16(9, 0) = true; want false")
	}
}
