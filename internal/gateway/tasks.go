package gateway

import (
	"context"
	"net/http"
	"net/url"
)

// taskResource is the backend document type backing the task list
const taskResource = "Company Task"

// Task is a portal task record. Name is the backend-assigned identity.
type Task struct {
	Name   string `json:"name"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

// ListTasks retrieves all tasks visible to the session's roles
func (c *Client) ListTasks(ctx context.Context) ([]Task, error) {
	query := url.Values{"fields": {`["name","title","status"]`}}

	var envelope resourceEnvelope
	if err := c.doJSON(ctx, http.MethodGet, "/api/resource/"+taskResource, query, nil, &envelope); err != nil {
		return nil, err
	}

	var tasks []Task
	if err := decodeResource(envelope, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

type taskBody struct {
	Title  string `json:"title"`
	Status string `json:"status,omitempty"`
}

// CreateTask creates a task in Open status
func (c *Client) CreateTask(ctx context.Context, title string) (Task, error) {
	var envelope resourceEnvelope
	err := c.doJSON(ctx, http.MethodPost, "/api/resource/"+taskResource, nil, taskBody{
		Title:  title,
		Status: "Open",
	}, &envelope)
	if err != nil {
		return Task{}, err
	}

	var task Task
	if err := decodeResource(envelope, &task); err != nil {
		return Task{}, err
	}
	return task, nil
}

// UpdateTask changes a task's title
func (c *Client) UpdateTask(ctx context.Context, name, title string) error {
	return c.doJSON(ctx, http.MethodPut, "/api/resource/"+taskResource+"/"+name, nil, taskBody{Title: title}, nil)
}

// DeleteTask removes a task
func (c *Client) DeleteTask(ctx context.Context, name string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/resource/"+taskResource+"/"+name, nil, nil, nil)
}
