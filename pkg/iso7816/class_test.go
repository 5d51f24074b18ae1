package iso7816

import (
	"errors"
	"testing"
)

func TestNewClass(t *testing.T) {
	tests := []struct {
		name    string
		cla     byte
		wantErr bool
		check   func(Class) bool
	}{
		{
			name: "Basic - Ch 0, No SM",
			// 0b0(Prop)_0(Basic)_0(RFU)_0(NoChain)_00(NoSM)_00(Ch0)
			cla: 0b0_0_0_0_00_00,
			check: func(c Class) bool {
				return !c.IsExtended() && c.Channel() == 0 && c.SecureMessaging() == SMNone && !c.IsChained()
			},
		},
		{
			name: "Basic - Ch 3, Chaining, SM Header Auth",
			cla:  0b0_0_0_1_11_11,
			check: func(c Class) bool {
				return c.IsChained() && c.Channel() == 3 && c.SecureMessaging() == SMHeaderAuthenticated
			},
		},
		{
			name: "Basic - Ch 1, SM Auth",
			cla:  0b0_0_0_0_10_01,
			check: func(c Class) bool {
				return c.Channel() == 1 && c.SecureMessaging() == SMAuthenticated
			},
		},
		{
			name:    "Basic - Proprietary SM pattern",
			cla:     0b0_0_0_0_01_00,
			wantErr: true,
		},
		{
			name:    "Basic - Reserved bit 6",
			cla:     0b0_0_1_0_00_00,
			wantErr: true,
		},
		{
			name: "Extended - Ch 4, No SM",
			// 0b0(Prop)_1(Extended)_0(NoSM)_0(NoChain)_0000(Offset 0 -> Ch 4)
			cla: 0b0_1_0_0_0000,
			check: func(c Class) bool {
				return c.IsExtended() && c.Channel() == 4 && c.SecureMessaging() == SMNone
			},
		},
		{
			name: "Extended - Ch 19, SM, Chaining",
			cla:  0b0_1_1_1_1111,
			check: func(c Class) bool {
				return c.IsChained() && c.Channel() == 19 && c.SecureMessaging() == SMAuthenticated
			},
		},
		{
			name:    "Proprietary Class",
			cla:     0b1_0000000,
			wantErr: true,
		},
		{
			name:    "Reserved FF",
			cla:     0xFF,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClass(tt.cla)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewClass(%08b) error = %v, wantErr %v", tt.cla, err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidClass) {
					t.Errorf("error %v should wrap ErrInvalidClass", err)
				}
				return
			}
			if !tt.check(c) {
				t.Errorf("NewClass(%08b) failed validation: %+v", tt.cla, c)
			}
		})
	}
}

// basicReserved reports the basic range patterns the codec refuses.
func basicReserved(b byte) bool {
	basic := b&0x40 == 0
	return basic && (b&0x20 != 0 || b&0x0C == 0x04)
}

func TestClass_RoundTripAllBytes(t *testing.T) {
	for i := 0; i <= 0xFF; i++ {
		b := byte(i)
		c, err := NewClass(b)

		switch {
		case b >= 0x80 || basicReserved(b):
			if err == nil {
				t.Errorf("NewClass(0x%02X) should fail, got %+v", b, c)
			}
		case err != nil:
			t.Errorf("NewClass(0x%02X) unexpected error: %v", b, err)
		case c.Encode() != b:
			t.Errorf("Round-trip mismatch: got 0x%02X, want 0x%02X", c.Encode(), b)
		}
	}
}

func TestNewInterindustryClass(t *testing.T) {
	t.Run("Header authentication unavailable on extended channels", func(t *testing.T) {
		if _, err := NewInterindustryClass(false, SMHeaderAuthenticated, 5); err == nil {
			t.Error("Should have failed: header authentication is basic range only")
		}
	})

	t.Run("Channel Out of Range", func(t *testing.T) {
		if _, err := NewInterindustryClass(false, SMNone, 20); err == nil {
			t.Error("Should have failed: channel 20 is out of range")
		}
	})

	t.Run("Extended Construction", func(t *testing.T) {
		c, err := NewInterindustryClass(true, SMAuthenticated, 10)
		if err != nil {
			t.Fatalf("Should have succeeded, got error: %v", err)
		}
		// 10 = 4 + 6 (0110).
		// Expect: 0(Prop)_1(Extended)_1(SM)_1(Chain)_0110(Offset 6) -> 0x76
		if got, want := c.Encode(), byte(0b0_1_1_1_0110); got != want {
			t.Errorf("Encode() = %08b, want %08b", got, want)
		}
	})

	t.Run("Basic Construction", func(t *testing.T) {
		c, err := NewInterindustryClass(false, SMHeaderAuthenticated, 2)
		if err != nil {
			t.Fatalf("Should have succeeded, got error: %v", err)
		}
		if got := c.Encode(); got != 0x0E {
			t.Errorf("Encode() = 0x%02X, want 0x0E", got)
		}
	})
}

func TestClass_Chaining(t *testing.T) {
	base := MustClass(0x01)
	chained := base.WithChaining()

	if base.IsChained() {
		t.Error("WithChaining must not modify the receiver")
	}
	if chained.Encode() != 0x11 {
		t.Errorf("WithChaining().Encode() = 0x%02X, want 0x11", chained.Encode())
	}
	if chained.WithoutChaining() != base {
		t.Error("WithoutChaining should restore the original value")
	}

	ext := MustClass(0x45).WithChaining()
	if ext.Encode() != 0x55 || ext.Channel() != 9 {
		t.Errorf("extended WithChaining() = 0x%02X ch %d", ext.Encode(), ext.Channel())
	}
}

func TestClass_ZeroValue(t *testing.T) {
	var c Class
	if c.Encode() != 0x00 {
		t.Errorf("zero Class encodes to 0x%02X, want 0x00", c.Encode())
	}
	if c != MustClass(0x00) {
		t.Error("zero Class should equal NewClass(0x00)")
	}
}
