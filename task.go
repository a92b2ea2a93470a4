package main

import (
	"fmt"
	"log"
	"time"
)

// Task is one pipeline stage, gated by its config switch.
type Task struct {
	TaskName string
	Enable   bool
	Run      func() error
}

// RunTasks runs tasks in order and stops at the first failure.
func RunTasks(tasks []*Task) error {
	for _, task := range tasks {
		if !task.Enable {
			log.Printf("Task[%-7s] skip", task.TaskName)
			continue
		}
		log.Printf("Task[%-7s] start", task.TaskName)
		var start = time.Now()
		if err := task.Run(); err != nil {
			log.Printf("Task[%-7s] failed: %v", task.TaskName, err)
			return fmt.Errorf("task %s: %w", task.TaskName, err)
		}
		log.Printf("Task[%-7s] done in %s", task.TaskName, time.Since(start).Round(time.Millisecond))
	}
	return nil
}
