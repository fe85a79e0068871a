package util

import (
	"context"
	"errors"
	"testing"
	"time"

	"tasteit/internal/model"
)

func TestFormatRatingStars(t *testing.T) {
	tests := []struct {
		rating float64
		want   string
	}{
		{0, "☆☆☆☆☆"},
		{2.4, "★★☆☆☆"},
		{4.5, "★★★★★"},
		{7, "★★★★★"},
	}
	for _, tt := range tests {
		if got := FormatRatingStars(tt.rating); got != tt.want {
			t.Errorf("FormatRatingStars(%v) = %q, want %q", tt.rating, got, tt.want)
		}
	}
}

func TestFormatRating(t *testing.T) {
	if got := FormatRating(4); got != "4" {
		t.Errorf("FormatRating(4) = %q", got)
	}
	if got := FormatRating(4.25); got != "4.2" && got != "4.3" {
		t.Errorf("FormatRating(4.25) = %q", got)
	}
}

func TestFormatPrice(t *testing.T) {
	if got := FormatPriceLevel(0); got != "€" {
		t.Errorf("FormatPriceLevel(0) = %q", got)
	}
	if got := FormatPriceLevel(4); got != "€€€€€" {
		t.Errorf("FormatPriceLevel(4) = %q", got)
	}
	if got := FormatEuros(9); got != "€€€€€" {
		t.Errorf("FormatEuros(9) = %q", got)
	}
}

func TestFormatTravel(t *testing.T) {
	if got := FormatDistance(model.UnknownTravel); got != NotAvailable {
		t.Errorf("sentinel distance = %q", got)
	}
	if got := FormatDuration(model.UnknownTravel); got != NotAvailable {
		t.Errorf("sentinel duration = %q", got)
	}
	if got := FormatDistance(850); got != "850 m" {
		t.Errorf("FormatDistance(850) = %q", got)
	}
	if got := FormatDistance(1200); got != "1.2 km" {
		t.Errorf("FormatDistance(1200) = %q", got)
	}
	if got := FormatDuration(720); got != "12 min" {
		t.Errorf("FormatDuration(720) = %q", got)
	}
	if got := FormatDuration(3900); got != "1 h 5 min" {
		t.Errorf("FormatDuration(3900) = %q", got)
	}
}

func TestFormatCount(t *testing.T) {
	if got := FormatCount(1234567); got != "1,234,567" {
		t.Errorf("FormatCount = %q", got)
	}
}

func TestTruncateString(t *testing.T) {
	if got := TruncateString("Trattoria da Mario", 10); got != "Trattor..." {
		t.Errorf("TruncateString = %q", got)
	}
	if got := TruncateString("Sushi", 10); got != "Sushi" {
		t.Errorf("TruncateString = %q", got)
	}
}

func TestRetryWithBackoff(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(context.Background(), 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return errors.New("temporary")
		}
		return nil
	}, nil)
	if err != nil {
		t.Fatalf("RetryWithBackoff() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryWithBackoffStopsOnPermanent(t *testing.T) {
	calls := 0
	sentinel := errors.New("bad request")
	err := RetryWithBackoff(context.Background(), 5, time.Millisecond, func() error {
		calls++
		return Permanent(sentinel)
	}, nil)
	if !errors.Is(err, sentinel) {
		t.Fatalf("error = %v, want %v", err, sentinel)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryWithBackoffExhausted(t *testing.T) {
	sentinel := errors.New("down")
	err := RetryWithBackoff(context.Background(), 2, time.Millisecond, func() error { return sentinel }, nil)
	if !errors.Is(err, sentinel) {
		t.Fatalf("error = %v, want wrapped %v", err, sentinel)
	}
}
