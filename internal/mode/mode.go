// Package mode хранит режим работы сессии: боевой бэкенд или демо-набор данных.
package mode

import "sync"

// Mode задаёт режим обслуживания запросов сессии.
type Mode int

const (
	// Live отправляет запросы на бэкенд CRM.
	Live Mode = iota
	// Demo обслуживает запросы локальным демо-набором.
	Demo
)

func (m Mode) String() string {
	switch m {
	case Live:
		return "live"
	case Demo:
		return "demo"
	default:
		return "unknown"
	}
}

// Context хранит режим; создаётся явно и разделяется сервисами одной сессии.
type Context struct {
	mu   sync.RWMutex
	mode Mode
}

// NewContext создаёт контекст в режиме Live.
func NewContext() *Context {
	return &Context{mode: Live}
}

// Mode возвращает текущий режим.
func (c *Context) Mode() Mode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mode
}

// IsDemo сообщает, активен ли демо-режим.
func (c *Context) IsDemo() bool {
	return c.Mode() == Demo
}

// Set переключает режим.
func (c *Context) Set(m Mode) {
	c.mu.Lock()
	c.mode = m
	c.mu.Unlock()
}
