// Copyright 2025 corate Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package heap

import "golang.org/x/exp/constraints"

// Elem is a weighted element in a heap.
type Elem[T any, W constraints.Ordered] struct {
	Value  T
	Weight W
}

type _heap[T any, W constraints.Ordered] []Elem[T, W]

func (e _heap[T, W]) Len() int {
	return len(e)
}

func (e _heap[T, W]) Less(i, j int) bool {
	return e[i].Weight < e[j].Weight
}

func (e _heap[T, W]) Swap(i, j int) {
	e[i], e[j] = e[j], e[i]
}

func (e *_heap[T, W]) Push(x any) {
	*e = append(*e, x.(Elem[T, W]))
}

func (e *_heap[T, W]) Pop() any {
	old := *e
	n := len(old)
	x := old[n-1]
	*e = old[:n-1]
	return x
}
