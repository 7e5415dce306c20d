// ABOUTME: Playback session package
// ABOUTME: Couples a decoding source and an output sink through a bounded buffer
// Package player runs a playback Session: a producer goroutine reads
// one-second chunks from a decode.Source into a buffer.Bounded and a consumer
// goroutine writes them to an output.Sink.
//
// Example:
//
//	src, _ := decode.NewSource("song.flac")
//	sink, _ := output.New(output.BackendOto, "")
//
//	session := player.New(player.Config{
//	    Source:    src,
//	    Sink:      sink,
//	    OnMessage: func(msg string) { fmt.Println(msg) },
//	})
//
//	go func() {
//	    <-interrupt
//	    session.Stop()
//	}()
//
//	if err := session.Play(ctx); err != nil {
//	    log.Fatal(err)
//	}
package player
