/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomoncle/userdir"
	"github.com/tomoncle/userdir/config"
	"github.com/tomoncle/userdir/database"
	"github.com/tomoncle/userdir/types"
)

const usage = `usage: userctl [flags] <command> [args]

commands:
  migrate                          create missing tables
  ping                             report database health
  create <email> <name> <password> add a user
  find <id|email|name>             look a user up
  list                             list users (not supported)
  update <id> [field flags]        change a user
  remove <id>                      delete a user

flags:
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("userctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configFile := fs.String("config", "", "YAML configuration file")
	dotEnv := fs.String("env-file", ".env", "dotenv file with overrides")
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	cfg, err := config.Load(config.Options{File: *configFile, DotEnv: *dotEnv})
	if err != nil {
		fmt.Fprintf(stderr, "load config: %v\n", err)
		return 1
	}
	if err := cfg.ApplyLogging(); err != nil {
		fmt.Fprintf(stderr, "configure logging: %v\n", err)
		return 1
	}

	db, err := database.InitDB(ctx, cfg.ConfigLoader())
	if err != nil {
		fmt.Fprintf(stderr, "init database: %v\n", err)
		return 1
	}
	defer func() { _ = database.CloseDB() }()

	hasher, err := userdir.NewBcryptHasher(cfg.Security.BcryptCost)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	dir := userdir.NewFromDB(db, userdir.WithHasher(hasher))

	out, err := dispatch(ctx, dir, fs.Arg(0), fs.Args()[1:], stderr)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", fs.Arg(0), err)
		return exitCode(err)
	}
	if out != nil {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			fmt.Fprintf(stderr, "encode output: %v\n", err)
			return 1
		}
	}
	return 0
}

func dispatch(ctx context.Context, dir *userdir.Directory, cmd string, args []string, stderr io.Writer) (any, error) {
	switch cmd {
	case "migrate":
		if err := database.RunMigrations(ctx); err != nil {
			return nil, err
		}
		return map[string]string{"status": "ok"}, nil
	case "ping":
		return database.GetHealthStatus(ctx), nil
	case "create":
		if len(args) != 3 {
			return nil, errors.New("want <email> <name> <password>")
		}
		return dir.Create(ctx, userdir.CreateUserInput{Email: args[0], Name: args[1], Password: args[2]})
	case "find":
		if len(args) != 1 {
			return nil, errors.New("want <id|email|name>")
		}
		user, err := dir.FindOne(ctx, args[0])
		if err != nil {
			return nil, err
		}
		return user.WithoutPassword(), nil
	case "list":
		return dir.FindAll(ctx)
	case "update":
		if len(args) < 1 {
			return nil, errors.New("want <id> [field flags]")
		}
		in, err := parseUpdate(args[1:], stderr)
		if err != nil {
			return nil, err
		}
		user, err := dir.Update(ctx, args[0], in)
		if err != nil {
			return nil, err
		}
		return user.WithoutPassword(), nil
	case "remove":
		if len(args) != 1 {
			return nil, errors.New("want <id>")
		}
		return nil, dir.Remove(ctx, args[0])
	default:
		return nil, fmt.Errorf("unknown command %q", cmd)
	}
}

func parseUpdate(args []string, stderr io.Writer) (userdir.UpdateUserInput, error) {
	var in userdir.UpdateUserInput
	fs := flag.NewFlagSet("update", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Func("email", "new email", func(s string) error { in.Email = &s; return nil })
	fs.Func("name", "new name", func(s string) error { in.Name = &s; return nil })
	fs.Func("password", "new password", func(s string) error { in.Password = &s; return nil })
	fs.BoolFunc("active", "set is_active (true|false)", func(s string) error {
		v := s != "false"
		in.IsActive = &v
		return nil
	})
	fs.Func("profile", "JSON object merged into the profile", func(s string) error {
		var p types.JsonObject
		if err := json.Unmarshal([]byte(s), &p); err != nil {
			return err
		}
		in.Profile = p
		return nil
	})
	if err := fs.Parse(args); err != nil {
		return in, err
	}
	return in, nil
}

func exitCode(err error) int {
	switch userdir.KindOf(err) {
	case userdir.NotFound:
		return 3
	case userdir.DuplicateKey, userdir.InvalidInput:
		return 4
	case userdir.Unimplemented:
		return 5
	default:
		return 1
	}
}
