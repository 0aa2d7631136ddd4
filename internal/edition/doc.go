// Package edition defines the customization hooks of the provisioning pipeline
// and the named editions that override them.
//
// Every edition satisfies Edition. Base supplies the "do the normal thing"
// behaviour for each hook; variants embed Base and override only the hooks
// they change. Rewrite hooks are pure transforms of the data the pipeline
// hands in. CheckPackagesSource, UpgradeSystem and PostInstall are the only
// hooks allowed side effects, and they reach the system solely through the
// privileged runner carried by Env.
//
// An edition is picked once per run from a Registry by its short name.
package edition
