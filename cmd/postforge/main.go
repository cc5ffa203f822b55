package main

import (
	"fmt"
	"log"
	"os"
	"syscall"

	"github.com/jessevdk/go-flags"
	"golang.org/x/term"

	"github.com/postforge/postforge"
	"github.com/postforge/postforge/util"
)

var version string

// Return parsed run options
func parseOptions(args []string) *postforge.Options {
	var opts struct {
		File        []string `short:"f" long:"file" description:"PostScript program to run, rather than stdin" value-name:"ps_file" default:"-"`
		Device      string   `short:"d" long:"device" description:"Output device (dump, png, null)" value-name:"device"`
		OutDir      string   `short:"o" long:"out-dir" description:"Directory for raster page output" value-name:"dir" default:"."`
		Config      string   `long:"config" description:"YAML file with page-device defaults: page_size, resolution, text_mode"`
		Password    string   `long:"job-password" description:"StartJobPassword for startjob/exitserver, overridden by $POSTFORGE_PASSWORD" value-name:"password"`
		Prompt      bool     `long:"password-prompt" description:"Force job password prompt"`
		Interactive bool     `short:"i" long:"interactive" description:"Run the executive loop after the input files"`
		LogLevel    string   `long:"log-level" description:"Log level (debug, info, warn, error)" value-name:"level"`
		Help        bool     `long:"help" description:"Show this help"`
		Version     bool     `long:"version" description:"Show this version"`
	}

	parser := flags.NewParser(&opts, flags.None)
	parser.Usage = "[options] [ps_file...]"
	args, err := parser.ParseArgs(args)
	if err != nil {
		log.Fatal(err)
	}

	if opts.Help {
		parser.WriteHelp(os.Stdout)
		os.Exit(0)
	}

	if opts.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	if opts.LogLevel != "" {
		util.InitSlogLevel(opts.LogLevel)
	} else {
		util.InitSlog()
	}

	password, ok := os.LookupEnv("POSTFORGE_PASSWORD")
	if !ok {
		password = opts.Password
	}

	if opts.Prompt {
		fmt.Printf("Enter Password: ")
		pass, err := term.ReadPassword(int(syscall.Stdin))
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println()
		password = string(pass)
	}

	files := opts.File
	if len(args) > 0 {
		files = args
	}

	interactive := opts.Interactive
	if len(args) == 0 && len(opts.File) == 1 && opts.File[0] == "-" &&
		term.IsTerminal(int(syscall.Stdin)) {
		// No piped program and no file: fall into the executive loop.
		interactive = true
		files = nil
	}

	return &postforge.Options{
		Files:            files,
		DeviceName:       opts.Device,
		OutDir:           opts.OutDir,
		Config:           opts.Config,
		StartJobPassword: password,
		Interactive:      interactive,
	}
}

func main() {
	options := parseOptions(os.Args[1:])
	if err := postforge.Run(options); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
