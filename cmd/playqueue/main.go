// Команда playqueue проигрывает файлы по очереди через один канал.
//
//	playqueue [-env .env] [-fade 2s] [-speed 1.0] track1.mp3 track2.wav ...
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Roman77St/playqueue"
	"github.com/Roman77St/playqueue/config"
	_ "github.com/Roman77St/playqueue/output/portaudio"
)

func main() {
	envFile := flag.String("env", ".env", "path to .env file")
	fade := flag.Duration("fade", 0, "fade in/out duration for every track")
	speed := flag.Float64("speed", 1, "playback speed")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: playqueue [flags] file...")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := cfg.Logger(os.Stderr)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	manager := playqueue.NewManager(playqueue.WithManagerLogger(log))
	ch := playqueue.NewChannel(playqueue.WithChannelLogger(log))
	if err := manager.AddChannel("main", ch); err != nil {
		log.Fatal().Err(err).Msg("add channel")
	}

	var chain []playqueue.Effect
	if *fade > 0 {
		chain = append(chain, playqueue.FadeIn(*fade))
	}
	if *speed != 1 {
		chain = append(chain, playqueue.ChangeSpeed(*speed, 0))
	}
	if err := ch.SetEffectsChain(chain); err != nil {
		log.Fatal().Err(err).Msg("effects chain")
	}

	// Шаг 1: Загружаем все файлы заранее, битые пропускаем.
	queued := 0
	for _, path := range flag.Args() {
		sink := playqueue.NewSink(
			playqueue.WithConfig(cfg),
			playqueue.WithLogger(log),
			playqueue.WithCallback(func() { log.Info().Str("path", path).Msg("finished") }),
		)
		if err := sink.LoadAudio(path, false); err != nil {
			log.Error().Err(err).Str("path", path).Msg("skipping")
			continue
		}
		if *fade > 0 {
			// Затухание в конце трека: отсчет по часам самого синка.
			if d := sink.GetDuration() - *fade; d > *fade {
				if err := sink.ApplyEffects([]playqueue.Effect{playqueue.FadeOut(*fade).After(d)}); err != nil {
					log.Warn().Err(err).Str("path", path).Msg("fade out not scheduled")
				}
			}
		}
		meta := sink.Tags()
		log.Info().
			Str("path", path).
			Str("title", meta.Title).
			Str("artist", meta.Artist).
			Dur("duration", sink.GetDuration()).
			Msg("queued")
		if err := ch.Push(sink); err != nil {
			log.Fatal().Err(err).Msg("push")
		}
		queued++
	}
	if queued == 0 {
		log.Fatal().Msg("nothing to play")
	}

	// Шаг 2: Запускаем очередь и ждем, пока канал не опустеет, или сигнала.
	manager.StartAll()
	poll := time.NewTicker(100 * time.Millisecond)
	defer poll.Stop()
	progress := time.NewTicker(5 * time.Second)
	defer progress.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("interrupted")
			manager.StopAll()
			return
		case <-poll.C:
			// Пропущенный или перезагруженный синк не должен подвесить ожидание.
			if ch.Idle() {
				log.Info().Msg("queue finished")
				return
			}
		case <-progress.C:
			if cur := ch.CurrentAudio(); cur != nil {
				info := cur.Info()
				log.Debug().
					Str("path", info.Path).
					Dur("position", info.Position).
					Float64("volume", info.Volume).
					Msg("progress")
			}
		}
	}
}
