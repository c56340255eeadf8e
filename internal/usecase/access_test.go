package usecase_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/founderlab/fl-stripe-server/internal/domain/entity"
	"github.com/founderlab/fl-stripe-server/internal/usecase"
)

func TestCanAccess(t *testing.T) {
	user := &entity.Principal{ID: "42", Email: "u@example.com"}
	admin := &entity.Principal{ID: "1", Admin: true}

	tests := []struct {
		name      string
		principal *entity.Principal
		action    usecase.Action
		target    string
		want      bool
	}{
		{"anonymous", nil, usecase.ActionListCards, "", false},
		{"empty principal id", &entity.Principal{}, usecase.ActionListCards, "", false},
		{"own records implicit", user, usecase.ActionCreateCard, "", true},
		{"own records explicit", user, usecase.ActionCharge, "42", true},
		{"someone else", user, usecase.ActionDeleteCard, "43", false},
		{"loose equality is not enough", user, usecase.ActionListCards, "042", false},
		{"admin acts for anyone", admin, usecase.ActionSubscribe, "43", true},
		{"admin lists customers", admin, usecase.ActionListCustomers, "", true},
		{"user cannot list customers", user, usecase.ActionListCustomers, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, usecase.CanAccess(tt.principal, tt.action, tt.target))
		})
	}
}
