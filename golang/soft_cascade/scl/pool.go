package scl

import (
	"golang.org/x/sync/errgroup"
)

//Task is a unit of work executed by a Pool.
type Task interface {
	Run() error
}

//Pool runs tasks on a bounded number of goroutines. Tasks must write to disjoint locations.
type Pool struct {
	group errgroup.Group
}

//NewPool creates a pool running at most threadsNum tasks at the same time.
func NewPool(threadsNum int) *Pool {
	pool := &Pool{}
	if threadsNum < 1 {
		threadsNum = 1
	}
	pool.group.SetLimit(threadsNum)
	return pool
}

//AddTask schedules task. It blocks while all workers are busy.
func (pool *Pool) AddTask(task Task) {
	pool.group.Go(task.Run)
}

//WaitAll blocks until every scheduled task has finished and returns the first task error.
func (pool *Pool) WaitAll() error {
	return pool.group.Wait()
}

//TaskFunc adapts a function to the Task interface.
type TaskFunc func() error

func (f TaskFunc) Run() error { return f() }
