package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"lifesaver/egress/internal/egress"
	"lifesaver/egress/internal/floor"
)

var (
	travelRoom int64
	travelDoor int64
	travelJSON bool
)

var roomTravelCmd = &cobra.Command{
	Use:   "room-travel <plan> --room <id> --door <id>",
	Short: "Common path of travel from a room's farthest corner to one of its doors",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if travelRoom <= 0 || travelDoor <= 0 {
			return fmt.Errorf("specify --room and --door element IDs")
		}
		plan, _, err := loadPlanArg(args[0])
		if err != nil {
			return err
		}
		sess, err := egress.NewSession(plan, egress.Config{EgressParam: egressParam(), Logger: logger})
		if err != nil {
			return err
		}
		travel, err := sess.RoomTravel(floor.ElementID(travelRoom), floor.ElementID(travelDoor))
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if travelJSON {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(travel)
		}

		fmt.Fprintf(w, "Room %d to door %d: %s\n", travel.RoomID, travel.DoorID, styles.Title.Render(feet(travel.Distance)))
		for i, p := range travel.Points {
			fmt.Fprintf(w, "  %2d. (%.2f, %.2f)\n", i+1, p.X, p.Y)
		}
		return nil
	},
}

func init() {
	roomTravelCmd.Flags().Int64Var(&travelRoom, "room", 0, "Room element ID")
	roomTravelCmd.Flags().Int64Var(&travelDoor, "door", 0, "Door element ID")
	roomTravelCmd.Flags().BoolVar(&travelJSON, "json", false, "JSON output")
	roomTravelCmd.Flags().StringVar(&analyzeEgressParam, "egress-param", "", "Door parameter that marks egress doors")
	rootCmd.AddCommand(roomTravelCmd)
}
