package main

import (
	"fmt"

	"taskmirror/internal/config"
	"taskmirror/internal/logging"
	"taskmirror/internal/store"
	taskpkg "taskmirror/internal/task"
	"taskmirror/internal/todoist"
)

// app bundles the components shared by CLI commands.
type app struct {
	cfg    *config.Config
	loader *config.Loader
	store  *store.Store
	remote *todoist.Client
	tasks  *taskpkg.Service
}

// buildApp loads configuration and wires the store, remote client, and
// task service. The caller must invoke close when done.
func buildApp() (*app, func(), error) {
	loader := config.NewLoader(configPath)
	cfg, err := loader.Load()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return nil, nil, err
	}
	if err := st.InitSchema(); err != nil {
		_ = st.Close()
		return nil, nil, err
	}

	remote := todoist.New(todoist.Config{
		Token:       cfg.Todoist.Token,
		BaseURL:     cfg.Todoist.BaseURL,
		Timeout:     cfg.Todoist.Timeout,
		MaxAttempts: cfg.Todoist.MaxAttempts,
		Logger:      logging.New("todoist"),
	})

	tasks := taskpkg.NewWithConfig(st, remote, &taskpkg.Config{
		Logger: logging.New("task"),
	})

	a := &app{
		cfg:    cfg,
		loader: loader,
		store:  st,
		remote: remote,
		tasks:  tasks,
	}
	closer := func() { _ = st.Close() }
	return a, closer, nil
}
