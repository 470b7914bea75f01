package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/evenmork/camwatch-backend/camera"
	"github.com/evenmork/camwatch-backend/models"
)

func cameraCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "camera",
		Short: "Administer camera records",
	}
	cmd.AddCommand(
		cameraAddCommand(),
		cameraListCommand(),
		cameraShowCommand(),
		cameraSetCommand(),
		cameraRemoveCommand(),
	)
	return cmd
}

func cameraAddCommand() *cobra.Command {
	var (
		cameraID  string
		name      string
		model     string
		mac       string
		ip        string
		latitude  float64
		longitude float64
		force     bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a new camera",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}

			cam := &models.Camera{
				CameraID:  cameraID,
				Name:      name,
				Model:     model,
				MAC:       mac,
				IP:        ip,
				Latitude:  latitude,
				Longitude: longitude,
			}

			// a camera whose templates expand through an empty attribute
			// would produce a malformed or overly permissive pattern, so
			// catch that at registration time
			if err := validateTemplateAttributes(app, cam); err != nil {
				return err
			}

			if !force {
				for _, prop := range []struct{ column, value string }{
					{"camera_id", cam.CameraID},
					{"name", cam.Name},
					{"mac", cam.MAC},
				} {
					if prop.value == "" {
						continue
					}
					count, err := app.cameras.CountWithProperty(prop.column, prop.value)
					if err != nil {
						return err
					}
					if count > 0 {
						return fmt.Errorf("a camera with %s = '%s' already exists (use --force to add anyway)", prop.column, prop.value)
					}
				}
			}

			if err := app.cameras.Create(cam); err != nil {
				return err
			}
			fmt.Printf("New camera added with ID: %d\n", cam.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&cameraID, "id", "i", "", "Unique identifier from camera")
	cmd.Flags().StringVarP(&name, "name", "N", "", "Camera name")
	cmd.Flags().StringVarP(&model, "model", "d", "", "Camera model")
	cmd.Flags().StringVarP(&mac, "mac", "m", "", "MAC address of camera")
	cmd.Flags().StringVarP(&ip, "ip", "p", "", "IP address of camera")
	cmd.Flags().Float64VarP(&latitude, "latitude", "a", 0, "Latitude of camera")
	cmd.Flags().Float64VarP(&longitude, "longitude", "o", 0, "Longitude of camera")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Add even if a similar camera exists")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

// validateTemplateAttributes refuses cameras whose configured templates
// reference attributes left empty. The internal id is assigned at
// creation and exempt.
func validateTemplateAttributes(app *app, cam *models.Camera) error {
	templates := []string{app.cfg.IncomingFolder, app.cfg.Folder, app.cfg.FileRegex}
	for _, template := range templates {
		for _, token := range camera.TemplateTokens(template) {
			if token == "id" {
				continue
			}
			value, known := app.tok.Value(token, cam)
			if !known {
				return fmt.Errorf("configured template '%s' references unknown token [[%s]]", template, token)
			}
			if value == "" {
				return fmt.Errorf("configured template '%s' requires attribute '%s', which is empty", template, token)
			}
		}
	}
	return nil
}

func cameraListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available cameras",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			cams, err := app.cameras.ListAll()
			if err != nil {
				return err
			}
			fmt.Printf("%-5s %-20s %-30s %-6s %s\n", "ID", "Cam ID", "Name", "Live", "Last update")
			for i := range cams {
				cam := &cams[i]
				fmt.Printf("%-5d %-20s %-30s %-6v %s\n",
					cam.ID, cam.CameraID, cam.Name, cam.Active, cam.UpdatedAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
}

func cameraShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show full info about given camera",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, cam, err := loadCameraArg(args[0])
			if err != nil {
				return err
			}
			currentFile := ""
			if cam.CurrentFile != nil {
				currentFile = *cam.CurrentFile
			}
			rows := [][2]string{
				{"id", strconv.FormatUint(uint64(cam.ID), 10)},
				{"camera_id", cam.CameraID},
				{"name", cam.Name},
				{"model", cam.Model},
				{"ip", cam.IP},
				{"mac", cam.MAC},
				{"latitude", strconv.FormatFloat(cam.Latitude, 'f', -1, 64)},
				{"longitude", strconv.FormatFloat(cam.Longitude, 'f', -1, 64)},
				{"currentFile", currentFile},
				{"active", strconv.FormatBool(cam.Active)},
				{"incoming dir", app.paths.FullIncomingDir(cam)},
				{"published dir", app.paths.FullDir(cam)},
				{"file regex", app.paths.FileRegex(cam)},
				{"updated_at", cam.UpdatedAt.Format("2006-01-02 15:04:05")},
			}
			for _, row := range rows {
				fmt.Printf("%-14s %s\n", row[0], row[1])
			}
			return nil
		},
	}
}

func cameraSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set <id> <property> <value>",
		Short: "Set property of camera",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, cam, err := loadCameraArg(args[0])
			if err != nil {
				return err
			}
			property, value := args[1], args[2]
			switch property {
			case "camera_id":
				cam.CameraID = value
			case "name":
				cam.Name = value
			case "model":
				cam.Model = value
			case "ip":
				cam.IP = value
			case "mac":
				cam.MAC = value
			case "latitude", "longitude":
				f, err := strconv.ParseFloat(value, 64)
				if err != nil {
					return fmt.Errorf("invalid value for %s: %w", property, err)
				}
				if property == "latitude" {
					cam.Latitude = f
				} else {
					cam.Longitude = f
				}
			default:
				return fmt.Errorf("property doesn't exist: %s (allowed: camera_id, name, model, ip, mac, latitude, longitude)", property)
			}
			// blanking an attribute the templates rely on would break the
			// camera's match patterns, same check as on add
			if err := validateTemplateAttributes(app, cam); err != nil {
				return err
			}
			return app.cameras.Update(cam)
		},
	}
}

func cameraRemoveCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove camera and its picture catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, cam, err := loadCameraArg(args[0])
			if err != nil {
				return err
			}
			if !force {
				return fmt.Errorf("refusing to delete camera '%s' without --force", cam.Name)
			}
			if err := app.cameras.Delete(cam.ID); err != nil {
				return err
			}
			fmt.Printf("Camera '%s' with ID '%d' was successfully deleted\n", cam.Name, cam.ID)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Force removal")
	return cmd
}

func loadCameraArg(arg string) (*app, *models.Camera, error) {
	id, err := strconv.ParseUint(arg, 10, 32)
	if err != nil {
		return nil, nil, fmt.Errorf("camera id must be numeric: %w", err)
	}
	app, err := newApp()
	if err != nil {
		return nil, nil, err
	}
	cam, err := app.cameras.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("camera not found")
		}
		return nil, nil, err
	}
	return app, cam, nil
}
