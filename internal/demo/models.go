// Package demo holds the models and views served by "hxstore serve".
package demo

import (
	"errors"
	"strings"

	"github.com/pthm/hxstore"
)

// Counter is the "counter" domain's slice.
type Counter struct {
	N int `json:"n"`
}

// Todo is a single todo item.
type Todo struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	Done  bool   `json:"done"`
}

// Todos is the "todos" domain's slice.
type Todos struct {
	Items  []Todo `json:"items"`
	NextID int    `json:"next_id"`
}

// Remaining counts the items not done yet.
func (t Todos) Remaining() int {
	n := 0
	for _, item := range t.Items {
		if !item.Done {
			n++
		}
	}
	return n
}

// ErrEmptyTitle is returned by todos/add for a blank title.
var ErrEmptyTitle = errors.New("title must not be empty")

// AddTodo is the payload of todos/add. Forms post it as a "title" field.
type AddTodo struct {
	Title string `json:"title"`
}

// Models returns the demo registry.
func Models() hxstore.Models {
	return hxstore.Models{
		"counter": {
			InitialState: Counter{},
			Reducers: map[string]hxstore.Reducer{
				"inc": hxstore.Handle(func(s Counter, n int) Counter {
					s.N += n
					return s
				}),
				"dec": hxstore.Handle(func(s Counter, n int) Counter {
					s.N -= n
					return s
				}),
				"reset": hxstore.Handle(func(Counter, any) Counter {
					return Counter{}
				}),
			},
		},
		"todos": {
			InitialState: Todos{NextID: 1},
			Reducers: map[string]hxstore.Reducer{
				"add":    hxstore.HandleErr(addTodo),
				"toggle": hxstore.Handle(toggleTodo),
				"clear": hxstore.Handle(func(s Todos, _ any) Todos {
					return clearDone(s)
				}),
			},
		},
	}
}

func addTodo(s Todos, p AddTodo) (Todos, error) {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return s, ErrEmptyTitle
	}
	items := make([]Todo, len(s.Items), len(s.Items)+1)
	copy(items, s.Items)
	items = append(items, Todo{ID: s.NextID, Title: title})
	return Todos{Items: items, NextID: s.NextID + 1}, nil
}

func toggleTodo(s Todos, id int) Todos {
	items := make([]Todo, len(s.Items))
	copy(items, s.Items)
	for i := range items {
		if items[i].ID == id {
			items[i].Done = !items[i].Done
		}
	}
	return Todos{Items: items, NextID: s.NextID}
}

func clearDone(s Todos) Todos {
	var items []Todo
	for _, item := range s.Items {
		if !item.Done {
			items = append(items, item)
		}
	}
	return Todos{Items: items, NextID: s.NextID}
}
