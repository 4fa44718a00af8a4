package kalshi_http

import "testing"

func TestOrder_FilledCount(t *testing.T) {
	tests := []struct {
		name  string
		order Order
		want  int
	}{
		{"fill count", Order{FillCount: 4, InitialCount: 10}, 4},
		{"initial minus remaining", Order{InitialCount: 10, RemainingCount: 3}, 7},
		{"fully executed without fill count", Order{InitialCount: 5}, 5},
		{"empty", Order{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.order.FilledCount(); got != tt.want {
				t.Errorf("FilledCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestOrder_FillPrice(t *testing.T) {
	tests := []struct {
		name   string
		order  Order
		want   int
		wantOK bool
	}{
		{"yes cents", Order{Side: SideYes, YesPrice: 42, NoPrice: 58}, 42, true},
		{"no cents", Order{Side: SideNo, YesPrice: 42, NoPrice: 58}, 58, true},
		{"yes dollars fallback", Order{Side: SideYes, YesPriceDollar: "0.4500"}, 45, true},
		{"no dollars fallback", Order{Side: SideNo, NoPriceDollar: "0.07"}, 7, true},
		{"bad dollars", Order{Side: SideYes, YesPriceDollar: "abc"}, 0, false},
		{"missing", Order{Side: SideNo}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.order.FillPrice()
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("FillPrice() = (%d, %v), want (%d, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
