package service

import (
	"github.com/Freeeeeet/tutor_market/internal/apperr"
	"github.com/Freeeeeet/tutor_market/internal/model"
)

// Capability действие, для которого нужна определённая роль
type Capability int

const (
	CapCreatePost          Capability = iota // публикация поста
	CapBook                                  // запись на курс
	CapDeleteBooking                         // удаление своей заявки
	CapUpdateBookingStatus                   // смена статуса записи
	CapListOwnBookings                       // просмотр своих записей
	CapReview                                // отзыв о занятии
	CapAdmin                                 // административные операции
)

type capabilityRule struct {
	roles []model.Role
	err   *apperr.Error
}

var capabilityRules = map[Capability]capabilityRule{
	CapCreatePost:          {roles: []model.Role{model.RoleTutor}, err: apperr.ErrNotTutor},
	CapBook:                {roles: []model.Role{model.RoleStudent}, err: apperr.ErrNotStudent},
	CapDeleteBooking:       {roles: []model.Role{model.RoleStudent}, err: apperr.ErrNotStudent},
	CapUpdateBookingStatus: {roles: []model.Role{model.RoleTutor}, err: apperr.ErrNotTutor},
	CapListOwnBookings:     {roles: []model.Role{model.RoleStudent, model.RoleTutor}, err: apperr.ErrInvalidRole},
	CapReview:              {roles: []model.Role{model.RoleStudent}, err: apperr.ErrNotStudent},
	CapAdmin:               {roles: []model.Role{model.RoleAdmin}, err: apperr.ErrNotAdmin},
}

// Can сообщает есть ли у вызывающего право на действие
func Can(caller model.Caller, capability Capability) bool {
	rule, ok := capabilityRules[capability]
	if !ok {
		return false
	}
	for _, role := range rule.roles {
		if caller.Role == role {
			return true
		}
	}
	return false
}

// Require возвращает ролевую ошибку, если права нет
func Require(caller model.Caller, capability Capability) error {
	if Can(caller, capability) {
		return nil
	}
	if rule, ok := capabilityRules[capability]; ok {
		return rule.err
	}
	return apperr.ErrInvalidRole
}
