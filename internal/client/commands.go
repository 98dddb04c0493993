package client

import (
	"context"
	"crypto/subtle"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/awnumar/memguard"

	"github.com/MKhiriev/credvault/internal/app"
	"github.com/MKhiriev/credvault/internal/vault"
	"github.com/MKhiriev/credvault/models"
)

// tagList collects repeated -tag flags.
type tagList []string

func (t *tagList) String() string { return strings.Join(*t, ",") }

func (t *tagList) Set(s string) error {
	for _, tag := range strings.Split(s, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			*t = append(*t, tag)
		}
	}
	return nil
}

func (a *App) runInit(ctx context.Context, args []string) error {
	fs := a.newFlagSet("init")
	if err := parseArgs(fs, args, 0); err != nil {
		return err
	}

	passphrase, err := a.readNewPassphrase("New master password: ")
	if err != nil {
		return err
	}
	defer memguard.WipeBytes(passphrase)

	if err := vault.Initialize(ctx, a.cfg.Vault.Dir, passphrase, a.opts); err != nil {
		return err
	}
	a.printf("vault created in %s\n", a.cfg.Vault.Dir)
	return nil
}

func (a *App) runStore(ctx context.Context, args []string) error {
	var (
		typeName  string
		desc      string
		project   string
		tags      tagList
		expiresIn time.Duration
		rotate    time.Duration
		fromStdin bool
	)
	fs := a.newFlagSet("store")
	fs.StringVar(&typeName, "type", models.CredentialTypeAPIToken.String(), "Credential type: api_token, username, password, ssh_key, other")
	fs.StringVar(&desc, "desc", "", "Description")
	fs.StringVar(&project, "project", "", "Bind the credential to this project directory instead of the global scope")
	fs.Var(&tags, "tag", "Tag (repeatable, or comma separated)")
	fs.DurationVar(&expiresIn, "expires", 0, "Expire the credential after this duration")
	fs.DurationVar(&rotate, "rotate", 0, "Rotation reminder interval")
	fs.BoolVar(&fromStdin, "stdin", false, "Read the secret from standard input")
	if err := parseArgs(fs, args, 1); err != nil {
		return err
	}

	credType, err := models.ParseCredentialType(typeName)
	if err != nil {
		return fmt.Errorf("%w: %w", vault.ErrInvalidMetadata, err)
	}
	scope := models.GlobalScope()
	if project != "" {
		abs, err := filepath.Abs(project)
		if err != nil {
			return fmt.Errorf("resolve project path: %w", err)
		}
		scope = models.ProjectScope(abs)
	}

	meta := models.CredentialMetadata{
		Name:             fs.Arg(0),
		Type:             credType,
		Description:      desc,
		Scope:            scope,
		Tags:             tags,
		RotationInterval: rotate,
	}
	if expiresIn > 0 {
		meta.ExpiresAt = time.Now().Add(expiresIn)
	}

	return a.withSession(ctx, func(s *vault.Session) error {
		secret, err := a.readSecret(fromStdin)
		if err != nil {
			return err
		}
		defer memguard.WipeBytes(secret)

		if err := s.StoreCredential(ctx, meta, secret); err != nil {
			return err
		}
		a.printf("stored %q\n", meta.Name)
		return nil
	})
}

func (a *App) readSecret(fromStdin bool) ([]byte, error) {
	if !fromStdin {
		return a.prompt.ReadSecret("Secret: ")
	}
	data, err := io.ReadAll(a.stdin)
	if err != nil {
		return nil, fmt.Errorf("read secret from stdin: %w", err)
	}
	return trimNewline(data), nil
}

func (a *App) runGet(ctx context.Context, args []string) error {
	var clip bool
	fs := a.newFlagSet("get")
	fs.BoolVar(&clip, "clip", false, "Copy the secret to the clipboard instead of printing it")
	if err := parseArgs(fs, args, 1); err != nil {
		return err
	}
	name := fs.Arg(0)

	return a.withSession(ctx, func(s *vault.Session) error {
		secret, err := s.GetCredential(ctx, name)
		if err != nil {
			return err
		}
		defer memguard.WipeBytes(secret)

		if clip {
			if err := a.clip.WriteAll(string(secret)); err != nil {
				return fmt.Errorf("copy to clipboard: %w", err)
			}
			fmt.Fprintf(a.stderr, "copied %q to the clipboard\n", name)
			return nil
		}

		if _, err := a.stdout.Write(secret); err != nil {
			return fmt.Errorf("write secret: %w", err)
		}
		a.printf("\n")
		return nil
	})
}

func (a *App) runList(ctx context.Context, args []string) error {
	var (
		typeName string
		tag      string
		project  string
		global   bool
	)
	fs := a.newFlagSet("list")
	fs.StringVar(&typeName, "type", "", "Only credentials of this type")
	fs.StringVar(&tag, "tag", "", "Only credentials with this tag")
	fs.StringVar(&project, "project", "", "Only credentials visible from this project directory")
	fs.BoolVar(&global, "global", false, "Only global credentials")
	if err := parseArgs(fs, args, 0); err != nil {
		return err
	}

	filter := models.CredentialFilter{Tag: tag}
	if typeName != "" {
		t, err := models.ParseCredentialType(typeName)
		if err != nil {
			return fmt.Errorf("%w: %w", app.ErrUsage, err)
		}
		filter.Type = t
	}
	if project != "" {
		abs, err := filepath.Abs(project)
		if err != nil {
			return fmt.Errorf("resolve project path: %w", err)
		}
		filter.VisibleFrom = abs
	}
	if global {
		scope := models.GlobalScope()
		filter.Scope = &scope
	}

	return a.withSession(ctx, func(s *vault.Session) error {
		list, err := s.ListCredentials(ctx, filter)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			a.printf("no credentials\n")
			return nil
		}
		a.printf("%s\n", renderCredentials(list, time.Now()))
		return nil
	})
}

func (a *App) runDelete(ctx context.Context, args []string) error {
	fs := a.newFlagSet("delete")
	if err := parseArgs(fs, args, 1); err != nil {
		return err
	}
	name := fs.Arg(0)

	return a.withSession(ctx, func(s *vault.Session) error {
		if err := s.DeleteCredential(ctx, name); err != nil {
			return err
		}
		a.printf("deleted %q\n", name)
		return nil
	})
}

func (a *App) runRotate(ctx context.Context, args []string) error {
	fs := a.newFlagSet("rotate")
	if err := parseArgs(fs, args, 0); err != nil {
		return err
	}

	current, err := a.prompt.ReadPassphrase("Current master password: ")
	if err != nil {
		return err
	}
	defer memguard.WipeBytes(current)

	s, err := vault.Unlock(ctx, a.cfg.Vault.Dir, current, a.opts)
	if err != nil {
		return err
	}
	defer s.Close()

	next, err := a.readNewPassphrase("New master password: ")
	if err != nil {
		return err
	}
	defer memguard.WipeBytes(next)

	if err := s.RotateMasterPassword(ctx, current, next); err != nil {
		return err
	}
	a.printf("master password changed\n")
	return nil
}

func (a *App) runAudit(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: audit needs verify or show", app.ErrUsage)
	}

	switch args[0] {
	case "verify":
		fs := a.newFlagSet("audit")
		if err := parseArgs(fs, args[1:], 0); err != nil {
			return err
		}
		if err := vault.VerifyAuditLog(ctx, a.cfg.Vault.Dir, a.opts); err != nil {
			return err
		}
		entries, err := vault.ReadAuditLog(ctx, a.cfg.Vault.Dir, 1, 0, a.opts)
		if err != nil {
			return err
		}
		a.printf("audit log verified: %d entries\n", len(entries))
		return nil

	case "show":
		var from, to uint64
		fs := a.newFlagSet("audit")
		fs.Uint64Var(&from, "from", 1, "First sequence number")
		fs.Uint64Var(&to, "to", 0, "Last sequence number (0 for the end)")
		if err := parseArgs(fs, args[1:], 0); err != nil {
			return err
		}
		entries, err := vault.ReadAuditLog(ctx, a.cfg.Vault.Dir, from, to, a.opts)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			a.printf("no audit entries\n")
			return nil
		}
		a.printf("%s\n", renderAudit(entries))
		return nil

	default:
		return fmt.Errorf("%w: unknown audit command %q", app.ErrUsage, args[0])
	}
}

func equalSecrets(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
