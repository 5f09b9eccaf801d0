// refresh координирует обновление access-токена между конкурентными запросами:
// одновременно выполняется не более одного обращения к refresh-эндпойнту,
// остальные запросы ждут его исхода в очереди.
//
// Контракт:
//  1. Acquire синхронно проверяет и выставляет флаг in-flight: первый вызов
//     становится лидером, последующие получают канал ожидания (FIFO);
//  2. лидер обязан ровно один раз вызвать Settle — с новым токеном или ошибкой;
//  3. Settle снимает флаг, очищает очередь и разрешает всех ожидающих в порядке
//     поступления. Каналы буферизованы, отправка не блокируется, поэтому очередь
//     очищается всегда, даже если ожидающий уже ушёл по своему контексту.
package refresh

import (
	"context"
	"sync"
)

// Result — исход обновления для ожидающего запроса.
type Result struct {
	Token string
	Err   error
}

// Coordinator — флаг in-flight и очередь ожидающих. Нулевое значение готово к работе.
type Coordinator struct {
	mu       sync.Mutex
	inFlight bool
	waiters  []chan Result
}

// Acquire возвращает leader=true, если обновление не выполнялось и вызывающий
// должен его провести. Иначе — канал, в который придёт исход текущего обновления.
func (c *Coordinator) Acquire() (leader bool, wait <-chan Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.inFlight {
		c.inFlight = true
		return true, nil
	}

	ch := make(chan Result, 1)
	c.waiters = append(c.waiters, ch)

	return false, ch
}

// Settle завершает текущее обновление и возвращает число разбуженных ожидающих.
// Ненулевой err разрешает всех ожидающих ошибкой, иначе — токеном.
func (c *Coordinator) Settle(token string, err error) int {
	c.mu.Lock()
	waiters := c.waiters
	c.waiters = nil
	c.inFlight = false
	c.mu.Unlock()

	res := Result{Token: token, Err: err}
	if err != nil {
		res.Token = ""
	}

	for _, ch := range waiters {
		ch <- res
	}

	return len(waiters)
}

// InFlight сообщает, выполняется ли обновление.
func (c *Coordinator) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.inFlight
}

// Pending — число запросов, ожидающих исхода текущего обновления.
func (c *Coordinator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.waiters)
}

// Wait ждёт исход обновления либо отмену ctx.
func Wait(ctx context.Context, wait <-chan Result) (string, error) {
	select {
	case res := <-wait:
		return res.Token, res.Err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
