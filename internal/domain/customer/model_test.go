package customer_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"masgolf/internal/domain/customer"
)

func TestCustomer_Validate(t *testing.T) {
	tests := []struct {
		name    string
		c       customer.Customer
		wantErr error
	}{
		{"valid", customer.Customer{Name: "김고객", Phone: "01012345678"}, nil},
		{"empty name", customer.Customer{Name: " ", Phone: "01012345678"}, customer.ErrEmptyName},
		{"empty phone", customer.Customer{Name: "김고객"}, customer.ErrEmptyPhone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.c.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAddPreviousPhone(t *testing.T) {
	c := customer.Customer{Phone: "01012345678"}
	c.AddPreviousPhone("010-1234-5678") // current number
	c.AddPreviousPhone("01099998888")
	c.AddPreviousPhone("+82 10-9999-8888") // same as above
	c.AddPreviousPhone("")
	if diff := cmp.Diff([]string{"01099998888"}, c.PreviousPhones); diff != "" {
		t.Errorf("PreviousPhones mismatch (-want +got):\n%s", diff)
	}
}

func TestAbsorb(t *testing.T) {
	jan := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	jun := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

	target := customer.Customer{
		ID:             "t",
		Name:           "김고객",
		Phone:          "01011112222",
		PreviousPhones: []string{"01033334444"},
		VisitCount:     2,
		FirstVisitAt:   mar,
		LastVisitAt:    mar,
	}
	source := customer.Customer{
		ID:             "s",
		Name:           "김고객",
		Phone:          "01055556666",
		Email:          "kim@example.com",
		PreviousPhones: []string{"01033334444", "01077778888"},
		VisitCount:     3,
		FirstVisitAt:   jan,
		LastVisitAt:    jun,
	}

	if err := target.Absorb(source); err != nil {
		t.Fatalf("Absorb: %v", err)
	}
	want := []string{"01033334444", "01077778888", "01055556666"}
	if diff := cmp.Diff(want, target.PreviousPhones); diff != "" {
		t.Errorf("PreviousPhones mismatch (-want +got):\n%s", diff)
	}
	if target.VisitCount != 5 {
		t.Errorf("VisitCount = %d, want 5", target.VisitCount)
	}
	if !target.FirstVisitAt.Equal(jan) || !target.LastVisitAt.Equal(jun) {
		t.Errorf("visit window = %v..%v", target.FirstVisitAt, target.LastVisitAt)
	}
	if target.Email != "kim@example.com" {
		t.Errorf("Email = %q", target.Email)
	}
}

func TestAbsorb_SamePhoneNotRecorded(t *testing.T) {
	target := customer.Customer{ID: "t", Phone: "01011112222"}
	source := customer.Customer{ID: "s", Phone: "010-1111-2222"}
	if err := target.Absorb(source); err != nil {
		t.Fatalf("Absorb: %v", err)
	}
	if len(target.PreviousPhones) != 0 {
		t.Errorf("PreviousPhones = %v, want empty", target.PreviousPhones)
	}
}

func TestAbsorb_Self(t *testing.T) {
	c := customer.Customer{ID: "same"}
	if err := c.Absorb(customer.Customer{ID: "same"}); err != customer.ErrSameCustomer {
		t.Errorf("Absorb(self) = %v, want ErrSameCustomer", err)
	}
}
