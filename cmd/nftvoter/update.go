// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/blinklabs-io/nftvoter/address"
	"github.com/blinklabs-io/nftvoter/internal/node"
	"github.com/blinklabs-io/nftvoter/updater"
	"github.com/blinklabs-io/nftvoter/voter"
	"github.com/spf13/cobra"
)

var updateFlags = struct {
	registrar   string
	record      string
	nftToken    string
	nftMetadata string
	action      string
}{}

func parseUpdateRequest() (updater.UpdateRequest, error) {
	var req updater.UpdateRequest
	var err error
	for _, field := range []struct {
		name  string
		value string
		dest  *address.Address
	}{
		{"registrar", updateFlags.registrar, &req.Registrar},
		{"record", updateFlags.record, &req.VoterWeightRecord},
		{"nft-token", updateFlags.nftToken, &req.NftToken},
		{"nft-metadata", updateFlags.nftMetadata, &req.NftMetadata},
	} {
		if *field.dest, err = address.Parse(field.value); err != nil {
			return req, fmt.Errorf("--%s: %w", field.name, err)
		}
	}
	req.Action, err = voter.ParseVoterWeightAction(updateFlags.action)
	if err != nil {
		return req, err
	}
	return req, nil
}

func updateRun(cmd *cobra.Command) error {
	req, err := parseUpdateRequest()
	if err != nil {
		return err
	}
	cfg := configFromCommand(cmd)
	logger := commonRun()
	n, err := node.New(cfg, logger, nil)
	if err != nil {
		return err
	}
	record, updateErr := n.Updater().UpdateVoterWeightRecord(
		context.Background(),
		req,
	)
	if updateErr != nil && voter.ErrorKind(updateErr) != voter.KindInternal {
		slog.Error(
			"voter weight update rejected",
			"kind", voter.ErrorKind(updateErr),
		)
	}
	if err := errors.Join(updateErr, n.Close()); err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(record)
}

func updateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Attest a voter weight against the local database",
		Run: func(cmd *cobra.Command, _ []string) {
			if err := updateRun(cmd); err != nil {
				slog.Error(err.Error())
				os.Exit(1)
			}
		},
	}
	cmd.Flags().
		StringVar(&updateFlags.registrar, "registrar", "", "registrar address")
	cmd.Flags().
		StringVar(&updateFlags.record, "record", "", "voter weight record address")
	cmd.Flags().
		StringVar(&updateFlags.nftToken, "nft-token", "", "NFT token account address")
	cmd.Flags().
		StringVar(&updateFlags.nftMetadata, "nft-metadata", "", "NFT metadata account address")
	cmd.Flags().
		StringVar(&updateFlags.action, "action", voter.CommentProposal.String(), "voter weight action")
	return cmd
}
