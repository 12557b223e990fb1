package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"mailapi/backend/internal/auth"
	"mailapi/backend/internal/domain"
	"mailapi/backend/internal/maildir"
	"mailapi/backend/internal/service"
)

var errUsage = errors.New("usage")

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "status":
		return a.status()
	case "serve":
		return a.serve(ctx, rest)
	case "domain":
		return a.domainCmd(ctx, rest)
	case "mailbox":
		return a.mailboxCmd(ctx, rest)
	case "alias":
		return a.aliasCmd(ctx, rest)
	case "quota":
		return a.quotaCmd(ctx, rest)
	case "maildir":
		if len(rest) != 1 {
			return errUsage
		}
		opts := maildir.Options{
			Hashed:          a.cfg.Maildir.Hashed,
			PrependDomain:   a.cfg.Maildir.PrependDomain,
			AppendTimestamp: a.cfg.Maildir.AppendTimestamp,
		}
		path, err := maildir.Path(rest[0], opts)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, path)
		return nil
	case "hash":
		if len(rest) != 1 {
			return errUsage
		}
		hash, err := auth.HashPassword(rest[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, hash)
		return nil
	default:
		return errUsage
	}
}

func (a *app) status() error {
	results := a.health.CheckHealth()
	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	w := newTable(a.out)
	for _, name := range names {
		fmt.Fprintf(w, "%s\t%s\n", name, results[name])
	}
	return w.Flush()
}

// ========== domain ==========

func (a *app) domainCmd(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	switch sub, rest := args[0], args[1:]; {
	case sub == "add" && (len(rest) == 1 || len(rest) == 2):
		description := ""
		if len(rest) == 2 {
			description = rest[1]
		}
		d, err := a.domains.Create(ctx, rest[0], description)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Domain %s created\n", d.Name)
		return nil

	case sub == "list" && len(rest) == 0:
		domains, err := a.domains.List(ctx)
		if err != nil {
			return err
		}
		w := newTable(a.out)
		fmt.Fprintln(w, "DOMAIN\tDESCRIPTION")
		for _, d := range domains {
			fmt.Fprintf(w, "%s\t%s\n", d.Name, d.Description)
		}
		return w.Flush()

	case sub == "show" && len(rest) == 1:
		d, err := a.domains.Get(ctx, rest[0])
		if err != nil {
			return err
		}
		if d == nil {
			return fmt.Errorf("%w: %s", domain.ErrNoSuchDomain, rest[0])
		}
		totals, err := a.quotas.SumByDomain(ctx, d.Name)
		if err != nil {
			return err
		}
		w := newTable(a.out)
		fmt.Fprintf(w, "Domain:\t%s\n", d.Name)
		fmt.Fprintf(w, "Description:\t%s\n", d.Description)
		fmt.Fprintf(w, "Used bytes:\t%d\n", totals.Bytes)
		fmt.Fprintf(w, "Messages:\t%d\n", totals.Messages)
		return w.Flush()

	case sub == "delete" && len(rest) == 1:
		deleted, err := a.domains.Delete(ctx, rest[0])
		if err != nil {
			return err
		}
		return a.report(deleted, "Domain %s deleted", "Domain %s was not deleted", rest[0])

	case sub == "mailboxes" && len(rest) == 1:
		mailboxes, err := a.domains.ListMailboxes(ctx, rest[0])
		if err != nil {
			return err
		}
		return a.printMailboxes(mailboxes)
	}
	return errUsage
}

// ========== mailbox ==========

func (a *app) mailboxCmd(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	switch sub, rest := args[0], args[1:]; {
	case sub == "add":
		return a.mailboxAdd(ctx, rest)

	case sub == "list" && len(rest) == 0:
		mailboxes, err := a.mailboxes.List(ctx)
		if err != nil {
			return err
		}
		return a.printMailboxes(mailboxes)

	case sub == "show" && len(rest) == 1:
		m, err := a.mailboxes.Get(ctx, rest[0])
		if err != nil {
			return err
		}
		if m == nil {
			return fmt.Errorf("%w: %s", domain.ErrNoSuchMailbox, rest[0])
		}
		w := newTable(a.out)
		fmt.Fprintf(w, "Address:\t%s\n", m.Address)
		fmt.Fprintf(w, "Name:\t%s\n", m.DisplayName)
		fmt.Fprintf(w, "Quota (MB):\t%d\n", m.QuotaMB)
		fmt.Fprintf(w, "Language:\t%s\n", m.Language)
		fmt.Fprintf(w, "Maildir:\t%s\n", m.FullMaildir())
		fmt.Fprintf(w, "Active:\t%t\n", m.Active)
		fmt.Fprintf(w, "Created:\t%s\n", m.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(w, "Password changed:\t%s\n", m.PasswordLastChanged.Format("2006-01-02 15:04:05"))
		return w.Flush()

	case sub == "delete" && len(rest) == 1:
		deleted, err := a.mailboxes.Delete(ctx, rest[0])
		if err != nil {
			return err
		}
		return a.report(deleted, "Mailbox %s deleted", "Mailbox %s was not deleted", rest[0])

	case sub == "passwd" && len(rest) == 2:
		ok, err := a.mailboxes.ResetPassword(ctx, rest[0], rest[1])
		if err != nil {
			return err
		}
		return a.report(ok, "Password of %s changed", "Password of %s was not changed", rest[0])

	case sub == "search" && len(rest) == 1:
		mailboxes, err := a.mailboxes.Search(ctx, rest[0])
		if err != nil {
			return err
		}
		return a.printMailboxes(mailboxes)

	case sub == "auth" && len(rest) == 2:
		ok, err := a.mailboxes.Authenticate(ctx, rest[0], rest[1])
		if err != nil {
			return err
		}
		return a.report(ok, "Password of %s accepted", "Password of %s rejected", rest[0])
	}
	return errUsage
}

func (a *app) mailboxAdd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("mailbox add", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	name := fs.String("name", "", "display name")
	quota := fs.Int64("quota", 0, "quota in MB, 0 for the configured default")
	lang := fs.String("lang", "", "language, e.g. en_US")
	base := fs.String("base", "", "storage base directory")
	node := fs.String("node", "", "storage node")
	if err := fs.Parse(args); err != nil || fs.NArg() != 2 {
		return errUsage
	}

	m, err := a.mailboxes.Create(ctx, service.CreateMailboxInput{
		Address:        fs.Arg(0),
		DisplayName:    *name,
		Password:       fs.Arg(1),
		QuotaMB:        *quota,
		Language:       *lang,
		StorageBaseDir: *base,
		StorageNode:    *node,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Mailbox %s created\n", m.Address)
	fmt.Fprintf(a.out, "Maildir: %s\n", m.FullMaildir())
	return nil
}

// ========== alias ==========

func (a *app) aliasCmd(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	switch sub, rest := args[0], args[1:]; {
	case sub == "add" && len(rest) == 2:
		alias, err := a.aliases.Add(ctx, rest[0], rest[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Alias %s -> %s created\n", alias.Address, alias.Goto)
		return nil

	case sub == "list" && len(rest) == 1:
		aliases, err := a.aliases.ListByDest(ctx, rest[0])
		if err != nil {
			return err
		}
		w := newTable(a.out)
		fmt.Fprintln(w, "SOURCE\tDEST\tDOMAIN")
		for _, alias := range aliases {
			fmt.Fprintf(w, "%s\t%s\t%s\n", alias.Address, alias.Goto, alias.Domain)
		}
		return w.Flush()

	case sub == "delete" && len(rest) == 2:
		deleted, err := a.aliases.DeleteOne(ctx, rest[0], rest[1])
		if err != nil {
			return err
		}
		return a.report(deleted, "Alias %s deleted", "No alias %s", rest[0]+" -> "+rest[1])

	case sub == "purge" && len(rest) == 1:
		deleted, err := a.aliases.DeleteAllByDest(ctx, rest[0])
		if err != nil {
			return err
		}
		return a.report(deleted, "Aliases to %s deleted", "No aliases to %s besides its own", rest[0])
	}
	return errUsage
}

// ========== quota ==========

func (a *app) quotaCmd(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	switch sub, rest := args[0], args[1:]; {
	case sub == "show" && len(rest) == 1:
		q, err := a.quotas.GetByMailbox(ctx, rest[0])
		if err != nil {
			return err
		}
		if q == nil {
			fmt.Fprintf(a.out, "No usage recorded for %s\n", rest[0])
			return nil
		}
		return a.printUsage([]domain.UsedQuota{*q})

	case sub == "domain" && len(rest) == 1:
		totals, err := a.quotas.SumByDomain(ctx, rest[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s: %d bytes in %d messages\n", rest[0], totals.Bytes, totals.Messages)
		return nil

	case sub == "list" && len(rest) == 1:
		rows, err := a.quotas.ListByDomain(ctx, rest[0])
		if err != nil {
			return err
		}
		return a.printUsage(rows)

	case sub == "delete" && len(rest) == 1:
		deleted, err := a.quotas.Delete(ctx, rest[0])
		if err != nil {
			return err
		}
		return a.report(deleted, "Usage of %s deleted", "No usage recorded for %s", rest[0])

	case sub == "reset" && len(rest) == 1:
		reset, err := a.quotas.Reset(ctx, rest[0])
		if err != nil {
			return err
		}
		return a.report(reset, "Usage of %s reset", "No usage recorded for %s", rest[0])
	}
	return errUsage
}

// ========== output ==========

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func (a *app) report(ok bool, yes, no, subject string) error {
	if ok {
		fmt.Fprintf(a.out, yes+"\n", subject)
	} else {
		fmt.Fprintf(a.out, no+"\n", subject)
	}
	return nil
}

func (a *app) printMailboxes(mailboxes []domain.Mailbox) error {
	w := newTable(a.out)
	fmt.Fprintln(w, "ADDRESS\tNAME\tQUOTA(MB)\tACTIVE")
	for _, m := range mailboxes {
		fmt.Fprintf(w, "%s\t%s\t%d\t%t\n", m.Address, m.DisplayName, m.QuotaMB, m.Active)
	}
	return w.Flush()
}

func (a *app) printUsage(rows []domain.UsedQuota) error {
	w := newTable(a.out)
	fmt.Fprintln(w, "ADDRESS\tBYTES\tMESSAGES")
	for _, q := range rows {
		fmt.Fprintf(w, "%s\t%d\t%d\n", q.Address, q.Bytes, q.Messages)
	}
	return w.Flush()
}
