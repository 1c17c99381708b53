package notifications

import (
	"context"
	"fmt"

	"github.com/artyomka101/appforphone/internal/cli"
)

type NotificationCmd struct {
	List   NotificationListCmd   `cmd:"" help:"List notifications, newest first." default:"1"`
	Read   NotificationReadCmd   `cmd:"" help:"Mark a notification as read."`
	Delete NotificationDeleteCmd `cmd:"" help:"Delete a notification."`
	Clear  NotificationClearCmd  `cmd:"" help:"Delete all notifications."`
	Test   NotificationTestCmd   `cmd:"" help:"Create and send a test notification."`
}

type NotificationListCmd struct {
	Unread bool `help:"Only show unread notifications."`
}

func (c *NotificationListCmd) Run(app *cli.Context, ctx context.Context) error {
	st, err := app.State(ctx)
	if err != nil {
		return err
	}
	snap := st.Snapshot()
	if len(snap.Notifications) == 0 {
		app.Println("No notifications.")
		return nil
	}

	app.Printf("%d notifications, %d unread\n\n", len(snap.Notifications), snap.UnreadCount)
	for _, n := range snap.Notifications {
		if c.Unread && n.IsRead {
			continue
		}
		mark := " "
		if !n.IsRead {
			mark = "•"
		}
		app.Printf("%s %s  %-16s  %s\n", mark, n.ID[:min(8, len(n.ID))], n.CreatedAt, n.Title)
		app.Printf("    %s\n", n.Message)
	}
	return nil
}

type NotificationReadCmd struct {
	ID string `arg:"" help:"Notification ID or unique prefix."`
}

func (c *NotificationReadCmd) Run(app *cli.Context, ctx context.Context) error {
	st, err := app.State(ctx)
	if err != nil {
		return err
	}
	id, err := resolve(st.Snapshot().Notifications, c.ID)
	if err != nil {
		return err
	}
	if err := st.MarkNotificationRead(ctx, id); err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	app.Println("✓ Notification marked as read")
	return nil
}

type NotificationDeleteCmd struct {
	ID string `arg:"" help:"Notification ID or unique prefix."`
}

func (c *NotificationDeleteCmd) Run(app *cli.Context, ctx context.Context) error {
	st, err := app.State(ctx)
	if err != nil {
		return err
	}
	id, err := resolve(st.Snapshot().Notifications, c.ID)
	if err != nil {
		return err
	}
	if err := st.DeleteNotification(ctx, id); err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	app.Println("✓ Notification deleted")
	return nil
}

type NotificationClearCmd struct {
	Yes bool `short:"y" help:"Do not ask for confirmation."`
}

func (c *NotificationClearCmd) Run(app *cli.Context, ctx context.Context) error {
	if !c.Yes && !cli.Confirm(cli.Stdin, app.Out, "Delete all notifications?") {
		app.Println("Clear cancelled.")
		return nil
	}
	st, err := app.State(ctx)
	if err != nil {
		return err
	}
	if err := st.ClearNotifications(ctx); err != nil {
		return fmt.Errorf("failed to clear notifications: %w", err)
	}
	app.Println("✓ Notifications cleared")
	return nil
}

type NotificationTestCmd struct{}

func (c *NotificationTestCmd) Run(app *cli.Context, ctx context.Context) error {
	st, err := app.State(ctx)
	if err != nil {
		return err
	}
	n, err := st.CreateTestNotification(ctx)
	if err != nil {
		return fmt.Errorf("failed to create test notification: %w", err)
	}
	app.Printf("✓ Test notification created at %s\n", n.CreatedAt)
	if !app.Notifier.Enabled() {
		app.Println("  Platform notifications are disabled, it was only recorded.")
	}
	return nil
}
