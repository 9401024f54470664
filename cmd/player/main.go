// Command player drives a Controller in real time against the system
// audio device, or bounces it to a WAV file when given a trailing
// ".wav" argument (§6 "CLI surface", and the recorder.cpp bounce mode
// recovered into SPEC_FULL.md §4).
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"jaudio"
	"jaudio/internal/aaf"
	"jaudio/internal/sinks/otosink"
	"jaudio/internal/sinks/pcmsink"
	"jaudio/internal/wsys"
)

const sampleRate = 44100

func usage() {
	fmt.Fprintln(os.Stderr, "usage: player <archive.aaf> <waves-dir> <seq-file> [out.wav]")
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "player:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) != 3 && len(args) != 4 {
		usage()
		return fmt.Errorf("wrong number of arguments")
	}

	archivePath, wavesDir, seqPath := args[0], args[1], args[2]
	log := jaudio.NewLogger(os.Stderr, slog.LevelInfo)

	archive, err := aaf.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}

	seqdata, err := os.ReadFile(seqPath)
	if err != nil {
		archive.Close()
		return fmt.Errorf("read sequence: %w", err)
	}

	var aw wsys.AWSource = jaudio.NewFileSystem(archivePath, wavesDir)

	var sink jaudio.Sink
	if len(args) == 4 && strings.HasSuffix(strings.ToLower(args[3]), ".wav") {
		f, err := os.Create(args[3])
		if err != nil {
			archive.Close()
			return fmt.Errorf("create %s: %w", args[3], err)
		}
		sink, err = pcmsink.New(f, sampleRate)
		if err != nil {
			f.Close()
			archive.Close()
			return fmt.Errorf("open wav sink: %w", err)
		}
		log.Info("bouncing to wav", "path", args[3])
	} else {
		sink, err = otosink.New(sampleRate)
		if err != nil {
			archive.Close()
			return fmt.Errorf("open audio device: %w", err)
		}
	}

	ctrl := jaudio.NewController(archive, aw, sink, sampleRate, seqdata, jaudio.WithLogger(log))
	defer ctrl.Close()
	defer sink.Close()

	for {
		playing, err := ctrl.Tick()
		if err != nil {
			return fmt.Errorf("tick %d: %w", ctrl.TickCount(), err)
		}
		if !playing {
			break
		}
	}

	log.Info("playback finished", "ticks", ctrl.TickCount(), "samples", ctrl.SamplesProcessed())
	return nil
}
