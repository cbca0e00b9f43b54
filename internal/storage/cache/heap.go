package cache

import "container/heap"

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	return pq[i].ExpireAt < pq[j].ExpireAt
}

// Swap меняет элементы местами и обновляет HeapIndex.
func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].HeapIndex = i
	pq[j].HeapIndex = j
}

func (pq *priorityQueue) Push(x any) {
	item := x.(*Item)
	item.HeapIndex = len(*pq)
	*pq = append(*pq, item)
}

// Pop извлекает элемент с минимальным ExpireAt.
func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.HeapIndex = -1
	*pq = old[:n-1]
	return item
}

// track ставит элемент в очередь, переупорядочивает или убирает из неё
// в зависимости от его текущего ExpireAt.
func (pq *priorityQueue) track(item *Item) {
	switch {
	case item.ExpireAt > 0 && item.HeapIndex >= 0:
		heap.Fix(pq, item.HeapIndex)
	case item.ExpireAt > 0:
		heap.Push(pq, item)
	case item.HeapIndex >= 0:
		heap.Remove(pq, item.HeapIndex)
	}
}

// untrack убирает элемент из очереди, если он там есть.
func (pq *priorityQueue) untrack(item *Item) {
	if item.HeapIndex >= 0 {
		heap.Remove(pq, item.HeapIndex)
	}
}

// peek возвращает ближайший дедлайн или 0, если очередь пуста.
func (pq priorityQueue) peek() int64 {
	if len(pq) == 0 {
		return 0
	}
	return pq[0].ExpireAt
}
