package sync

import (
	"log/slog"
	"runtime/debug"
	"sync"
)

// task единица работы dispatcher
type task struct {
	run  func()
	drop func() // вызывается, если задача снята с очереди до запуска
	name string
	gen  uint64 // поколение включения движка на момент постановки
	keep bool   // барьеры и сброс состояния не снимаются cancelPending
}

// dispatcher исполняет задачи строго по одной в порядке постановки (FIFO) на собственной горутине.
// Очередь не ограничена: submit никогда не блокирует вызывающего.
type dispatcher struct {
	logger  *slog.Logger
	onPanic func(name string, v any)
	signal  chan struct{} // буфер 1, сигналы схлопываются
	done    chan struct{}
	tasks   []task
	mu      sync.Mutex
	closed  bool
}

func newDispatcher(logger *slog.Logger, onPanic func(name string, v any)) *dispatcher {
	d := &dispatcher{
		logger:  logger,
		onPanic: onPanic,
		signal:  make(chan struct{}, 1),
		done:    make(chan struct{}),
		tasks:   make([]task, 0, 16),
	}
	go d.loop()
	return d
}

// submit ставит задачу в конец очереди. Возвращает false, если dispatcher закрыт.
func (d *dispatcher) submit(t task) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return false
	}

	d.tasks = append(d.tasks, t)

	select {
	case d.signal <- struct{}{}:
	default:
	}

	return true
}

// cancelPending снимает с очереди все задачи, кроме keep, и вызывает их drop.
// Выполняющаяся задача не затрагивается.
func (d *dispatcher) cancelPending() int {
	return d.cancelWhere(func(task) bool { return true })
}

// cancelUpTo снимает задачи, поставленные в поколении gen или раньше.
// Задачи более поздних поколений остаются в очереди.
func (d *dispatcher) cancelUpTo(gen uint64) int {
	return d.cancelWhere(func(t task) bool { return t.gen <= gen })
}

func (d *dispatcher) cancelWhere(match func(task) bool) int {
	d.mu.Lock()
	var dropped []task
	kept := make([]task, 0, len(d.tasks))
	for _, t := range d.tasks {
		if t.keep || !match(t) {
			kept = append(kept, t)
		} else {
			dropped = append(dropped, t)
		}
	}
	d.tasks = kept
	d.mu.Unlock()

	for _, t := range dropped {
		if t.drop != nil {
			t.drop()
		}
	}
	return len(dropped)
}

// pending количество задач в очереди
func (d *dispatcher) pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.tasks)
}

// close запрещает новые задачи; уже поставленные будут выполнены
func (d *dispatcher) close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	d.closed = true
	close(d.signal)
}

// wait ждёт завершения горутины после close
func (d *dispatcher) wait() {
	<-d.done
}

func (d *dispatcher) next() (task, bool, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.tasks) == 0 {
		return task{}, false, d.closed
	}

	t := d.tasks[0]
	d.tasks[0] = task{}
	d.tasks = d.tasks[1:]
	return t, true, d.closed
}

func (d *dispatcher) loop() {
	defer close(d.done)

	for {
		t, ok, closed := d.next()
		if ok {
			d.execute(t)
			continue
		}
		if closed {
			return
		}
		<-d.signal
	}
}

// execute запускает задачу, перехватывая панику
func (d *dispatcher) execute(t task) {
	defer func() {
		if v := recover(); v != nil {
			d.logger.Error("Panic recovered",
				"task", t.name,
				"error", v,
				"stack", string(debug.Stack()),
			)
			if d.onPanic != nil {
				d.onPanic(t.name, v)
			}
		}
	}()

	t.run()
}
