// Command cortexdlc is the offline image builder's command-line front end:
// build turns an ELF32 relocatable object into a binary Image, inspect
// dumps an Image's header and symbol table without loading it.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jetsetilly/cortexdl/internal/builder"
	"github.com/jetsetilly/cortexdl/internal/image"
)

var log *zap.Logger

func main() {
	root := &cobra.Command{
		Use:   "cortexdlc",
		Short: "Image builder for the cortexdl two-stage dynamic linker",
	}

	var verbose bool
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose build logging")
	cobra.OnInitialize(func() {
		log = newLogger(verbose)
	})

	root.AddCommand(buildCmd(), inspectCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(verbose bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.DisableStacktrace = true
	l, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

func buildCmd() *cobra.Command {
	var input, output, asmPath, objPath, linkedPath, moduleName string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a binary Image from an ELF32 relocatable object",
		RunE: func(cmd *cobra.Command, args []string) error {
			opt := builder.DefaultOptions(input)
			if moduleName != "" {
				opt.ModuleName = moduleName
			}
			if asmPath != "" {
				opt.AsmPath = asmPath
			}
			if objPath != "" {
				opt.ObjPath = objPath
			}
			if linkedPath != "" {
				opt.LinkedPath = linkedPath
			}

			log.Info("building image", zap.String("input", input), zap.String("module", opt.ModuleName))

			img, err := builder.Build(input, opt)
			if err != nil {
				log.Error("build failed", zap.Error(err))
				return err
			}

			if err := os.WriteFile(output, img, 0o644); err != nil {
				log.Error("write image failed", zap.Error(err))
				return err
			}

			log.Info("image written", zap.String("output", output), zap.Int("bytes", len(img)))
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", "module.o", "path to the ELF32 relocatable object")
	cmd.Flags().StringVar(&output, "output", "image.bin", "path to write the encoded Image")
	cmd.Flags().StringVar(&moduleName, "module-name", "", "module self-name (default: input's base name)")
	cmd.Flags().StringVar(&asmPath, "asm", "", "path for generated trampoline assembly (default: derived)")
	cmd.Flags().StringVar(&objPath, "obj", "", "path for the assembled trampoline object (default: derived)")
	cmd.Flags().StringVar(&linkedPath, "linked", "", "path for the linked ELF (default: derived)")

	return cmd
}

func inspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <image.bin>",
		Short: "Dump an Image's header and symbol table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			buf, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			img, err := image.Decode(buf)
			if err != nil {
				log.Error("decode failed", zap.Error(err))
				return err
			}

			fmt.Printf("n_funcs=%d n_reloc=%d l_symt=%d l_text=%d l_data=%d l_bss=%d n_symbol=%d\n",
				img.NFuncs, img.NReloc, img.LSymT, img.LText, img.LData, img.LBss, img.NSymbol)

			for i, s := range img.Symbols {
				fmt.Printf("  [%3d] kind=%d function=%v name=%q payload=%d\n", i, s.Kind, s.IsFunction, s.Name, s.Payload)
			}

			return nil
		},
	}
	return cmd
}
