// smoke-todos drives a running API end to end through the Go client:
// register, login, create, toggle, clear description, delete. Exits
// non-zero on the first divergence.
package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"tickdone.org/pkg/client"
)

func main() {
	baseURL := os.Getenv("TICKDONE_API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	c, err := client.New(baseURL)
	if err != nil {
		log.Fatalf("build client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	email := fmt.Sprintf("smoke-%d@example.com", rand.Int63())
	const password = "smoke-password-1"

	if _, err := c.Register(ctx, email, password, "Smoke Test"); err != nil {
		log.Fatalf("register: %v", err)
	}

	state := client.NewAuthState(c)
	if err := state.Login(ctx, email, password); err != nil {
		log.Fatalf("login: %v", err)
	}
	if state.Status() != client.StatusAuthenticated {
		log.Fatalf("expected authenticated state, got %v", state.Status())
	}

	store := client.NewTodoStore(c)
	if err := store.Load(ctx); err != nil {
		log.Fatalf("load: %v", err)
	}
	if len(store.Items()) != 0 {
		log.Fatalf("fresh account has %d todos", len(store.Items()))
	}

	desc := "created by smoke-todos"
	item, err := store.Create(ctx, "smoke item", &desc)
	if err != nil {
		log.Fatalf("create: %v", err)
	}
	if item.Completed {
		log.Fatal("new todo must start incomplete")
	}

	toggled, err := store.Toggle(ctx, item.ID)
	if err != nil {
		log.Fatalf("toggle: %v", err)
	}
	if !toggled.Completed {
		log.Fatal("toggle did not complete the todo")
	}

	cleared, err := store.Update(ctx, item.ID, client.TodoPatch{ClearDescription: true})
	if err != nil {
		log.Fatalf("clear description: %v", err)
	}
	if cleared.Description != nil {
		log.Fatalf("description survived the clear: %q", *cleared.Description)
	}

	// Round trip against the server, not just the local mirror.
	fetched, err := c.GetTodo(ctx, item.ID)
	if err != nil {
		log.Fatalf("get: %v", err)
	}
	if !fetched.Completed || fetched.Description != nil {
		log.Fatalf("server state diverged: %+v", fetched)
	}

	if err := store.Remove(ctx, item.ID); err != nil {
		log.Fatalf("remove: %v", err)
	}
	if _, err := c.GetTodo(ctx, item.ID); !client.IsNotFound(err) {
		log.Fatalf("deleted todo still resolves: %v", err)
	}

	if err := state.Logout(ctx); err != nil {
		log.Fatalf("logout: %v", err)
	}
	if _, err := c.Me(ctx); !client.IsUnauthorized(err) {
		log.Fatalf("session survived logout: %v", err)
	}

	fmt.Println("smoke-todos OK")
}
