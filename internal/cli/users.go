package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/martijn/userboard/internal/core/form"
	"github.com/martijn/userboard/internal/core/service"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// readPassword prompts on out and reads a line from the terminal without echo.
var readPassword = func(out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(password), nil
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage users",
	Long:  "Manage user accounts from the command line, e.g. to create the first administrator",
}

var (
	addName  string
	addEmail string
	addRole  string
)

var usersAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Add a new user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		services, err := initServices(cmd.Context())
		if err != nil {
			return err
		}
		defer services.Close()

		values := form.Values{
			form.FieldUsername: args[0],
			form.FieldName:     addName,
			form.FieldEmail:    addEmail,
			form.FieldRole:     addRole,
		}
		if err := promptPasswords(out, values); err != nil {
			return err
		}

		values, errs := form.NewValidator(nil).Validate(cmd.Context(), form.UserSchema, values, "")
		if errs.HasErrors() {
			printErrors(out, errs)
			return fmt.Errorf("invalid user")
		}

		user, err := services.UserService.Create(cmd.Context(), service.UserInput{
			Username: values[form.FieldUsername],
			Name:     values[form.FieldName],
			Email:    values[form.FieldEmail],
			Role:     values[form.FieldRole],
			Password: values[form.FieldPassword],
		})
		var dup *service.DuplicateKeyError
		if errors.As(err, &dup) {
			return fmt.Errorf("a user with this %s already exists", dup.Field)
		}
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		fmt.Fprintf(out, "User '%s' created successfully (id %d)\n", user.Username, user.ID)
		return nil
	},
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid user id: %s", args[0])
		}

		services, err := initServices(cmd.Context())
		if err != nil {
			return err
		}
		defer services.Close()

		user, err := services.UserService.Get(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("user not found: %d", id)
		}

		// Confirm deletion
		fmt.Fprintf(out, "Are you sure you want to delete user '%s'? (yes/no): ", user.Username)
		var confirm string
		fmt.Fscanln(cmd.InOrStdin(), &confirm)
		if confirm != "yes" {
			fmt.Fprintln(out, "Cancelled")
			return nil
		}

		if _, err := services.UserService.Delete(cmd.Context(), id); err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}

		fmt.Fprintf(out, "User '%s' deleted successfully\n", user.Username)
		return nil
	},
}

var usersUpdatePasswordCmd = &cobra.Command{
	Use:   "update-password <username>",
	Short: "Update user password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		username := args[0]

		services, err := initServices(cmd.Context())
		if err != nil {
			return err
		}
		defer services.Close()

		// Check if user exists
		if _, err := services.UserRepo.FindByUsername(cmd.Context(), username); err != nil {
			return fmt.Errorf("user not found: %s", username)
		}

		values := form.Values{}
		if err := promptPasswords(out, values); err != nil {
			return err
		}
		values, errs := form.NewValidator(nil).Validate(cmd.Context(), form.PasswordSchema, values, "")
		if errs.HasErrors() {
			printErrors(out, errs)
			return fmt.Errorf("invalid password")
		}

		if err := services.UserService.ChangePassword(cmd.Context(), username, values[form.FieldPassword]); err != nil {
			return fmt.Errorf("failed to update password: %w", err)
		}

		fmt.Fprintf(out, "Password updated for user '%s'\n", username)
		return nil
	},
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all users",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := initServices(cmd.Context())
		if err != nil {
			return err
		}
		defer services.Close()

		return listUsers(cmd.Context(), cmd.OutOrStdout(), services.UserService)
	},
}

func listUsers(ctx context.Context, out io.Writer, users *service.UserService) error {
	list, err := users.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	if len(list) == 0 {
		fmt.Fprintln(out, "No users found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tNAME\tEMAIL\tROLE\tCREATED AT")
	for _, user := range list {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			user.ID,
			user.Username,
			user.Name,
			user.Email,
			user.Role,
			user.CreatedAt.Format("2006-01-02 15:04:05"),
		)
	}
	return w.Flush()
}

func promptPasswords(out io.Writer, values form.Values) error {
	password, err := readPassword(out, "Enter password: ")
	if err != nil {
		return err
	}
	confirm, err := readPassword(out, "Confirm password: ")
	if err != nil {
		return err
	}
	values[form.FieldPassword] = password
	values[form.FieldPasswordConfirm] = confirm
	return nil
}

func printErrors(out io.Writer, errs form.Errors) {
	for _, field := range errs.Fields() {
		for _, msg := range errs[field] {
			fmt.Fprintf(out, "  %s: %s\n", field, msg)
		}
	}
}

func init() {
	usersAddCmd.Flags().StringVar(&addName, "name", "", "display name (required)")
	usersAddCmd.Flags().StringVar(&addEmail, "email", "", "email address (required)")
	usersAddCmd.Flags().StringVar(&addRole, "role", "", "role")

	usersCmd.AddCommand(usersAddCmd)
	usersCmd.AddCommand(usersDeleteCmd)
	usersCmd.AddCommand(usersUpdatePasswordCmd)
	usersCmd.AddCommand(usersListCmd)
	rootCmd.AddCommand(usersCmd)
}
