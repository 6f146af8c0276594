package service

import (
	"strconv"
	"sync"

	cmap "github.com/orcaman/concurrent-map/v2"
)

// userLocks — таблица мьютексов по идентификатору пользователя.
// Сериализует последовательность "чтение баланса — запись транзакции"
// в пределах одного пользователя: два конкурентных списания не могут
// пройти по одному снимку баланса. Мьютексы живут до конца процесса,
// количество пользователей на инстанс это позволяет.
type userLocks struct {
	locks cmap.ConcurrentMap[string, *sync.Mutex]
}

// accountLocks — единая таблица на процесс: движок списания и расчёт по
// сбору держат мьютексы одного пользователя из одной таблицы, поэтому
// начисление не пересекается с конкурентным списанием того же счёта.
var accountLocks = newUserLocks()

func newUserLocks() *userLocks {
	return &userLocks{locks: cmap.New[*sync.Mutex]()}
}

// Lock захватывает мьютекс пользователя и возвращает функцию освобождения.
func (l *userLocks) Lock(userID int64) func() {
	mu := l.locks.Upsert(strconv.FormatInt(userID, 10), nil,
		func(exists bool, current, _ *sync.Mutex) *sync.Mutex {
			if exists {
				return current
			}
			return &sync.Mutex{}
		})
	mu.Lock()
	return mu.Unlock
}

// LockPair захватывает мьютексы двух пользователей в порядке возрастания
// id, исключая взаимоблокировку встречных расчётов.
func (l *userLocks) LockPair(a, b int64) func() {
	if a == b {
		return l.Lock(a)
	}
	if a > b {
		a, b = b, a
	}
	unlockA := l.Lock(a)
	unlockB := l.Lock(b)
	return func() {
		unlockB()
		unlockA()
	}
}
