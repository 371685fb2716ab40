// Command nanoc is the compiler driver: argument parsing, source
// file I/O, and handing the emitted assembly off to an external
// assembler/linker live here, outside the four-stage pipeline proper
// (spec §1, §6.4). Grounded on tawago's main.go cli.App with its
// init/typeinfo/build commands, generalized to nanoc's pipeline and a
// nanoc.yaml manifest (internal/config) in place of tawago's "Tawa
// Module Information".
package main

import (
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"os/exec"

	"github.com/urfave/cli/v2"
	"github.com/ztrue/tracerr"

	"github.com/nanoc-lang/nanoc/internal/ast"
	"github.com/nanoc-lang/nanoc/internal/codegen"
	"github.com/nanoc-lang/nanoc/internal/config"
	"github.com/nanoc-lang/nanoc/internal/optimizer"
	"github.com/nanoc-lang/nanoc/internal/parser"
)

// compile runs Lexer -> Parser -> (Optimizer) -> Codegen over src and
// returns the assembly text.
func compile(src string, optimize bool) (string, error) {
	prog, err := parser.Parse(src)
	if err != nil {
		return "", err
	}
	if optimize {
		prog = optimizer.Optimize(prog)
	}
	return codegen.Generate(prog)
}

func parseOnly(src string, optimize bool) (ast.Program, error) {
	prog, err := parser.Parse(src)
	if err != nil {
		return ast.Program{}, err
	}
	if optimize {
		prog = optimizer.Optimize(prog)
	}
	return prog, nil
}

func fail(err error) error {
	tracerr.PrintSourceColor(tracerr.Wrap(err))
	os.Exit(1)
	return nil
}

func main() {
	app := &cli.App{
		Name:  "nanoc",
		Usage: "ahead-of-time compiler for the nano language",
		ExitErrHandler: func(c *cli.Context, err error) {
			if err != nil {
				log.Fatalf("nanoc: %v", err)
			}
		},
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "write a nanoc.yaml manifest in the current directory",
				Action: func(c *cli.Context) error {
					name := c.Args().First()
					if name == "" {
						fmt.Fprintln(os.Stderr, "usage: nanoc init <package-name>")
						os.Exit(1)
					}
					return config.Write(config.ManifestFile, config.Default(name))
				},
			},
			{
				Name:  "ast",
				Usage: "dump the parsed (optionally optimized) AST for a source file",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "optimize", Value: true},
				},
				Action: func(c *cli.Context) error {
					path := c.Args().First()
					if path == "" {
						fmt.Fprintln(os.Stderr, "usage: nanoc ast <file>")
						os.Exit(1)
					}
					data, err := ioutil.ReadFile(path)
					if err != nil {
						return fail(err)
					}
					prog, err := parseOnly(string(data), c.Bool("optimize"))
					if err != nil {
						return fail(err)
					}
					fmt.Println(ast.Dump(prog))
					return nil
				},
			},
			{
				Name:  "build",
				Usage: "compile a source file to x86-64 assembly",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "output"},
					&cli.BoolFlag{Name: "dump", Value: false},
					&cli.BoolFlag{Name: "optimize", Value: true},
					&cli.BoolFlag{Name: "assemble", Value: false, Usage: "invoke the system assembler/linker on the emitted text"},
				},
				Action: func(c *cli.Context) error {
					path := c.Args().First()
					if path == "" {
						fmt.Fprintln(os.Stderr, "usage: nanoc build <file>")
						os.Exit(1)
					}

					out := c.String("output")
					if out == "" {
						if m, err := config.Load(config.ManifestFile); err == nil {
							out = m.Output
						}
					}
					if out == "" {
						out = "a.s"
					}

					data, err := ioutil.ReadFile(path)
					if err != nil {
						return fail(err)
					}

					asm, err := compile(string(data), c.Bool("optimize"))
					if err != nil {
						return fail(err)
					}

					if c.Bool("dump") {
						fmt.Println(asm)
						return nil
					}

					if err := ioutil.WriteFile(out, []byte(asm), 0o644); err != nil {
						return fail(err)
					}

					if !c.Bool("assemble") {
						return nil
					}

					binOut := out
					if len(binOut) > 2 && binOut[len(binOut)-2:] == ".s" {
						binOut = binOut[:len(binOut)-2]
					}
					cmd := exec.Command("gcc", "-no-pie", "-o", binOut, out)
					cmd.Stdout = os.Stdout
					cmd.Stderr = os.Stderr
					if err := cmd.Run(); err != nil {
						return fail(err)
					}
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fail(err)
	}
}
