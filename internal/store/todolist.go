package store

import (
	"context"
	"fmt"

	"github.com/dmehra2102/planner/internal/domain"
	"github.com/dmehra2102/planner/internal/query"
)

// TodoListStore keeps lists and their todos in separate collections and
// joins them on read.
type TodoListStore struct {
	lists domain.Repository[domain.TodoList]
	todos domain.Repository[domain.Todo]
}

var _ domain.TodoListStore = (*TodoListStore)(nil)

func NewTodoListStore(lists domain.Repository[domain.TodoList], todos domain.Repository[domain.Todo]) *TodoListStore {
	return &TodoListStore{lists: lists, todos: todos}
}

func (s *TodoListStore) UserLists(ctx context.Context, ownerID string) ([]domain.TodoList, error) {
	lists, err := s.lists.List(ctx, query.Eq("owner_id", ownerID))
	if err != nil {
		return nil, err
	}
	if err := s.attachTodos(ctx, lists); err != nil {
		return nil, err
	}
	return lists, nil
}

func (s *TodoListStore) Get(ctx context.Context, id string) (*domain.TodoList, error) {
	list, err := s.lists.GetSingle(ctx, query.Eq("id", id))
	if err != nil {
		return nil, notFound(err, domain.ErrTodoListNotFound, id)
	}
	lists := []domain.TodoList{*list}
	if err := s.attachTodos(ctx, lists); err != nil {
		return nil, err
	}
	return &lists[0], nil
}

func (s *TodoListStore) Add(ctx context.Context, list *domain.TodoList) error {
	if list == nil {
		return domain.InvalidArgument(fmt.Errorf("todo list is required"))
	}
	return s.lists.Add(ctx, withoutTodos(list))
}

func (s *TodoListStore) Update(ctx context.Context, list *domain.TodoList) error {
	if list == nil {
		return domain.InvalidArgument(fmt.Errorf("todo list is required"))
	}
	n, err := s.lists.Update(ctx, query.Eq("id", list.ID), withoutTodos(list))
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrTodoListNotFound, list.ID)
	}
	return nil
}

// Delete removes the list's todos first, then the list. The two steps are
// independent: if the second fails the todos are already gone.
func (s *TodoListStore) Delete(ctx context.Context, id string) error {
	if err := domain.CheckContext(ctx); err != nil {
		return err
	}
	listID, err := domain.ParseID(id)
	if err != nil {
		return domain.ErrInvalidListID
	}

	if _, err := s.todos.Delete(ctx, query.Eq("todolist_id", listID)); err != nil {
		return fmt.Errorf("failed to delete todos of list %s: %w", listID, err)
	}

	n, err := s.lists.Delete(ctx, query.Eq("id", listID))
	if err != nil {
		return fmt.Errorf("failed to delete list %s: %w", listID, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrTodoListNotFound, listID)
	}
	return nil
}

// attachTodos fills Todos for every list with one query.
func (s *TodoListStore) attachTodos(ctx context.Context, lists []domain.TodoList) error {
	if len(lists) == 0 {
		return nil
	}

	byList := make([]query.Expr, len(lists))
	for i, l := range lists {
		byList[i] = query.Eq("todolist_id", l.ID)
	}

	todos, err := s.todos.List(ctx, query.Or(byList...))
	if err != nil {
		return err
	}

	grouped := make(map[string][]domain.Todo, len(lists))
	for _, t := range todos {
		grouped[t.TodoListID] = append(grouped[t.TodoListID], t)
	}
	for i := range lists {
		lists[i].Todos = grouped[lists[i].ID]
		if lists[i].Todos == nil {
			lists[i].Todos = []domain.Todo{}
		}
	}
	return nil
}

func withoutTodos(list *domain.TodoList) *domain.TodoList {
	stored := *list
	stored.Todos = nil
	return &stored
}
