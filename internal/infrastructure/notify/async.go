package notify

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"posture-coach/internal/domain/entity"
	"posture-coach/internal/domain/port"
)

const asyncErrorBuffer = 8

type postureItem struct {
	ctx     context.Context
	posture entity.Posture
}

type errorItem struct {
	ctx context.Context
	err error
}

// Async доставляет оценки получателю из своей горутины.
//
// Для оценок почтовый ящик на одну запись: новая вытесняет недоставленную,
// поэтому медленный получатель видит только последнюю оценку и не тормозит детектор.
// Ошибки редкие, они идут через небольшой буфер.
type Async struct {
	sink port.PresentationSink
	log  *logrus.Logger

	postures chan postureItem
	errs     chan errorItem
	dropped  atomic.Uint64

	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// NewAsync запускает горутину доставки. Остановка через Close.
func NewAsync(sink port.PresentationSink, log *logrus.Logger) *Async {
	a := &Async{
		sink:     sink,
		log:      log,
		postures: make(chan postureItem, 1),
		errs:     make(chan errorItem, asyncErrorBuffer),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go a.run()
	return a
}

// ShowPosture не блокируется: кладёт оценку в ящик, вытесняя недоставленную.
func (a *Async) ShowPosture(ctx context.Context, posture entity.Posture) {
	item := postureItem{ctx: context.WithoutCancel(ctx), posture: posture}
	for {
		select {
		case a.postures <- item:
			return
		default:
		}

		select {
		case <-a.postures:
			a.dropped.Add(1)
		default:
		}
	}
}

// ShowError не блокируется; при переполненном буфере ошибка пишется только в лог.
func (a *Async) ShowError(ctx context.Context, err error) {
	select {
	case a.errs <- errorItem{ctx: context.WithoutCancel(ctx), err: err}:
	default:
		a.log.WithFields(logrus.Fields{
			"error": err.Error(),
		}).Warn("[notify.Async.ShowError] error queue is full")
	}
}

// Dropped сколько оценок вытеснено до доставки
func (a *Async) Dropped() uint64 {
	return a.dropped.Load()
}

// Close останавливает доставку и ждёт, пока текущий получатель вернётся.
func (a *Async) Close() {
	a.once.Do(func() { close(a.done) })
	<-a.stopped
}

func (a *Async) run() {
	defer close(a.stopped)
	for {
		// Ошибки важнее оценок, забираем их первыми.
		select {
		case e := <-a.errs:
			a.sink.ShowError(e.ctx, e.err)
			continue
		default:
		}

		select {
		case <-a.done:
			return
		case e := <-a.errs:
			a.sink.ShowError(e.ctx, e.err)
		case p := <-a.postures:
			a.sink.ShowPosture(p.ctx, p.posture)
		}
	}
}

var _ port.PresentationSink = (*Async)(nil)
