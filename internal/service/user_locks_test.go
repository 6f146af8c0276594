package service

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAccountLocks_SharedAcrossServices(t *testing.T) {
	reward := NewRewardService(new(mockRewardRepo))
	collection := NewCollectionService(new(mockClaimRepo), new(mockSettlementRepo))

	// Списание и расчёт по сбору сериализуются на мьютексах одной таблицы.
	assert.Same(t, reward.locks, collection.locks)
}

func TestUserLocks_SerializesSameUser(t *testing.T) {
	locks := newUserLocks()

	unlock := locks.Lock(7)

	acquired := make(chan struct{})
	go func() {
		second := locks.Lock(7)
		close(acquired)
		second()
	}()

	select {
	case <-acquired:
		t.Fatal("мьютекс пользователя захвачен дважды")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("мьютекс пользователя не освободился")
	}
}

func TestUserLocks_LockPair(t *testing.T) {
	locks := newUserLocks()

	// Порядок аргументов не важен: пары (7,9) и (9,7) берут одни и те же
	// мьютексы по возрастанию id и не взаимоблокируются.
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			unlock := locks.LockPair(7, 9)
			unlock()
		}()
		go func() {
			defer wg.Done()
			unlock := locks.LockPair(9, 7)
			unlock()
		}()
	}
	wg.Wait()
}

func TestUserLocks_LockPair_SameUser(t *testing.T) {
	locks := newUserLocks()

	unlock := locks.LockPair(7, 7)
	unlock()

	// Мьютекс освобождён: повторный захват не блокируется.
	unlock = locks.Lock(7)
	unlock()
}
