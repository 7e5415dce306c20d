// ABOUTME: Bounded chunk buffer package
// ABOUTME: Fixed-capacity FIFO monitor shared by one producer and one consumer
// Package buffer provides Bounded, a fixed-capacity circular queue of byte
// chunks with blocking Insert and Remove.
//
// Bounded is a monitor: one mutex guards all state and a single condition
// variable is broadcast on every change, because a change made by Insert can
// release a goroutine waiting in Remove and the other way round.
//
// Example:
//
//	buf := buffer.New(buffer.DefaultCapacity)
//
//	go func() {
//	    for chunk := range chunks {
//	        buf.Insert(ctx, chunk)
//	    }
//	    buf.CloseInput()
//	}()
//
//	for {
//	    chunk, err := buf.Remove(ctx)
//	    if err != nil {
//	        break
//	    }
//	    sink.Write(chunk)
//	}
package buffer
