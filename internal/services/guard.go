package services

import (
	"jejuboard/internal/apperr"
	"jejuboard/internal/models"
)

// MayMutate 只有内容作者本人可以修改或删除。
// ownerID 是创建时记录的作者 ID，为空表示机器人内容，不属于任何人。
func MayMutate(requester *models.User, ownerID *uint) bool {
	if requester == nil || ownerID == nil {
		return false
	}
	return requester.ID != 0 && requester.ID == *ownerID
}

func authorize(requester *models.User, ownerID *uint, msg string) error {
	if !MayMutate(requester, ownerID) {
		return apperr.Forbidden(msg)
	}
	return nil
}
