package service

import "github.com/pray3m/hyteno-fullstack-todo/internal/model"

// CanModify decides whether an actor may mutate or delete a todo: admins
// may touch any todo, everyone else only their own. Pure function; the
// todo service is its only caller, so every update and delete path runs
// through this check.
func CanModify(actor *model.User, todo *model.Todo) bool {
	return actor.IsAdmin() || actor.ID == todo.UserID
}
